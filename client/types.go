package client

import (
	"encoding/json"
	"strconv"
	"time"
)

// Zone mirrors the server's fixed UTC+8 boundary. Every createdAt string on
// the wire is rendered and parsed in this zone, whatever the local zone is.
var Zone = time.FixedZone("UTC+8", 8*60*60)

// TimeLayout is the wire format for timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// EmptyMessage is the editor's empty-paragraph sentinel; it is never sent.
const EmptyMessage = "<p><br></p>"

// Memo is one note as seen on the wire. CreatedAt stays a string: display
// uses it verbatim, and the heatmap parses it with ParseCreatedAt.
type Memo struct {
	ID        string `json:"_id"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// ParseCreatedAt interprets a wire timestamp in the fixed zone.
func ParseCreatedAt(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, Zone)
}

// TempID builds a client-generated placeholder id for optimistic creates.
// Decimal milliseconds can never collide with server-issued uuids, and the
// format difference makes leftover temp ids easy to spot.
func TempID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// ListQuery carries the optional filters of GET /api/getMemo.
type ListQuery struct {
	UserID   string
	Message  string
	Page     int
	PageSize int
	Full     bool
}

// ListResult is the body of a successful list response.
type ListResult struct {
	Data        []Memo `json:"data"`
	FullData    []Memo `json:"fullData,omitempty"`
	HasMore     bool   `json:"hasMore"`
	TotalCount  int    `json:"totalCount"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

// envelope is the {success, data?, error?/message?} wrapper around every
// response. List responses carry their extra fields beside it.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) failure() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
