package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps test retries in the millisecond range.
func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BaseDelay:      time.Millisecond,
		GatewayBase:    time.Millisecond,
		MaxInterval:    5 * time.Millisecond,
		AttemptTimeout: time.Second,
		TimeoutStep:    time.Second,
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithRetryPolicy(fastRetry()))
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestGetMemosDecodesListResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/getMemo", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]string{
				{"_id": "m1", "message": "hello", "userId": "u1", "createdAt": "2026-08-30 10:00:00"},
			},
			"hasMore":     true,
			"totalCount":  25,
			"currentPage": 2,
			"totalPages":  3,
		})
	}))

	res, err := c.GetMemos(context.Background(), ListQuery{UserID: "u1", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "m1", res.Data[0].ID)
	assert.True(t, res.HasMore)
	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, 3, res.TotalPages)
}

func TestGetMemosFullModeSendsFlag(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("full"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"data":     []Memo{},
			"fullData": []Memo{{ID: "m1"}, {ID: "m2"}},
		})
	}))

	res, err := c.GetMemos(context.Background(), ListQuery{UserID: "u1", Full: true})
	require.NoError(t, err)
	assert.Len(t, res.FullData, 2)
}

func TestGetMemosRetriesGatewayTimeout(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusGatewayTimeout)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "请求超时，请稍后重试",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []Memo{}})
	}))

	_, err := c.GetMemos(context.Background(), ListQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetMemosFailsFastOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "userId is required",
		})
	}))

	_, err := c.GetMemos(context.Background(), ListQuery{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, IsIrrecoverable(err))
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "userId is required", ae.Message)
}

func TestGetMemosExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "服务器错误"})
	}))

	_, err := c.GetMemos(context.Background(), ListQuery{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestPutMemoDecodesCreatedRecord(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/putMemo", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])
		assert.Equal(t, "u1", body["userId"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Memo{ID: "abc123", Message: "hello", UserID: "u1", CreatedAt: "2026-08-30 10:00:00"},
		})
	}))

	m, err := c.PutMemo(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "abc123", m.ID)
	assert.Equal(t, "hello", m.Message)
}

func TestUpdateMemoSendsID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "m1", body["_id"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Memo{ID: "m1", Message: "edited"},
		})
	}))

	m, err := c.UpdateMemo(context.Background(), "m1", "u1", "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", m.Message)
}

func TestDeleteMemoNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/deleteMemo/m1", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "未找到指定的 memo",
		})
	}))

	_, err := c.DeleteMemo(context.Background(), "m1", "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsIrrecoverable(err))

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "未找到指定的 memo", ae.Message)
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "服务器错误"})
	}))

	_, err := c.PutMemo(context.Background(), "u1", "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSuccessFalseWith200IsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "无效的输入"})
	}))
	defer srv.Close()
	c, err := New(srv.URL, WithRetryPolicy(RetryPolicy{MaxAttempts: 1, AttemptTimeout: time.Second}))
	require.NoError(t, err)

	_, err = c.GetMemos(context.Background(), ListQuery{UserID: "u1"})
	require.Error(t, err)
	assert.False(t, IsIrrecoverable(err))
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Category
	}{
		{http.StatusBadRequest, Irrecoverable},
		{http.StatusUnauthorized, Irrecoverable},
		{http.StatusNotFound, Irrecoverable},
		{http.StatusRequestTimeout, Recoverable},
		{http.StatusTooManyRequests, Recoverable},
		{http.StatusInternalServerError, Recoverable},
		{http.StatusGatewayTimeout, Recoverable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyStatus(tc.status), "status %d", tc.status)
	}
}

func TestStatusOfUnrelatedError(t *testing.T) {
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
	assert.False(t, IsIrrecoverable(errors.New("plain")))
}

func TestTempIDIsDecimalMillis(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	id := TempID(now)
	assert.Equal(t, "1788084000000", id)
	for _, r := range id {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestParseCreatedAtUsesFixedZone(t *testing.T) {
	ts, err := ParseCreatedAt("2026-08-30 10:00:00")
	require.NoError(t, err)
	assert.Equal(t, 8*60*60, func() int { _, off := ts.Zone(); return off }())
	assert.Equal(t, 10, ts.Hour())
}

func TestEnvelopeFailurePrefersError(t *testing.T) {
	e := envelope{Error: "boom", Message: "fallback"}
	assert.Equal(t, "boom", e.failure())
	e = envelope{Message: "fallback"}
	assert.Equal(t, "fallback", e.failure())
}
