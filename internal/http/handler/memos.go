package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"memopad/internal/auth"
	"memopad/internal/memo"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	msgInvalidInput  = "无效的输入"
	msgMissingParams = "缺少必要的参数"
	msgNotFound      = "未找到指定的 memo"
	msgTimeout       = "请求超时，请稍后重试"
	msgServerError   = "服务器错误"
)

// MemoService is the slice of memo.Service the handlers need.
type MemoService interface {
	List(ctx context.Context, q memo.ListQuery) (*memo.ListResult, error)
	Create(ctx context.Context, userID, message string) (*memo.Memo, error)
	Update(ctx context.Context, id, userID, message string) (*memo.Memo, error)
	Delete(ctx context.Context, id, userID string) (*memo.Memo, error)
}

type MemoHandler struct {
	Svc MemoService
	Log zerolog.Logger
}

// ownerMismatch rejects requests whose userId does not match a verified
// token subject. Requests without a token pass; the external identity
// provider is the authority either way.
func ownerMismatch(r *http.Request, userID string) bool {
	sub, ok := auth.SubjectFromContext(r.Context())
	return ok && sub != userID
}

// GetMemo handles GET /api/getMemo.
func (h *MemoHandler) GetMemo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		writeListError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if ownerMismatch(r, userID) {
		writeListError(w, http.StatusForbidden, "forbidden")
		return
	}

	page, pageSize := 1, 10
	var err error
	if v := q.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
	}
	if err == nil && q.Get("pageSize") != "" {
		pageSize, err = strconv.Atoi(q.Get("pageSize"))
	}
	if err != nil || page < 1 || pageSize < 1 {
		writeListError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	res, err := h.Svc.List(r.Context(), memo.ListQuery{
		UserID:   userID,
		Message:  q.Get("message"),
		Page:     page,
		PageSize: pageSize,
		Full:     q.Get("full") == "true",
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeListError(w, http.StatusGatewayTimeout, msgTimeout)
			return
		}
		if errors.Is(err, memo.ErrInvalidInput) {
			writeListError(w, http.StatusBadRequest, "Invalid pagination parameters")
			return
		}
		h.Log.Error().Err(err).Str("userId", userID).Msg("list memos failed")
		writeListError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if res.Data == nil {
		res.Data = []memo.Memo{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Success:     true,
		Data:        res.Data,
		FullData:    res.FullData,
		HasMore:     res.HasMore,
		TotalCount:  res.TotalCount,
		CurrentPage: res.CurrentPage,
		TotalPages:  res.TotalPages,
	})
}

type putMemoReq struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// PutMemo handles POST /api/putMemo.
func (h *MemoHandler) PutMemo(w http.ResponseWriter, r *http.Request) {
	var req putMemoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if ownerMismatch(r, req.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	m, err := h.Svc.Create(r.Context(), req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, memo.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, msgInvalidInput)
			return
		}
		h.Log.Error().Err(err).Str("userId", req.UserID).Msg("create memo failed")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: m})
}

type updateMemoReq struct {
	ID      string `json:"_id"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// UpdateMemo handles PATCH /api/updateMemo.
func (h *MemoHandler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	var req updateMemoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if req.ID == "" || req.Message == "" || req.Message == memo.EmptyMessage ||
		strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if ownerMismatch(r, req.UserID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	m, err := h.Svc.Update(r.Context(), req.ID, req.UserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, memo.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, memo.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, msgInvalidInput)
		default:
			h.Log.Error().Err(err).Str("id", req.ID).Msg("update memo failed")
			writeError(w, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: m})
}

// DeleteMemo handles DELETE /api/deleteMemo/{id}.
func (h *MemoHandler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if id == "" || userID == "" {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}
	if ownerMismatch(r, userID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	m, err := h.Svc.Delete(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, memo.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.Is(err, memo.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, msgMissingParams)
		default:
			h.Log.Error().Err(err).Str("id", id).Msg("delete memo failed")
			writeError(w, http.StatusInternalServerError, msgServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: m})
}
