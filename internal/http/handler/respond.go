package handler

import (
	"encoding/json"
	"net/http"

	"memopad/internal/memo"
)

// Every response is wrapped in the {success, data?, error?/message?}
// envelope. The list endpoint reports failures under "message", the mutation
// endpoints under "error"; both shapes are load-bearing for existing clients.

type listResponse struct {
	Success     bool        `json:"success"`
	Data        []memo.Memo `json:"data"`
	FullData    []memo.Memo `json:"fullData,omitempty"`
	HasMore     bool        `json:"hasMore"`
	TotalCount  int64       `json:"totalCount"`
	CurrentPage int         `json:"currentPage"`
	TotalPages  int         `json:"totalPages"`
}

type dataResponse struct {
	Success bool       `json:"success"`
	Data    *memo.Memo `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeListError uses the "message" field, matching the list endpoint's
// historical envelope.
func writeListError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Message: msg})
}
