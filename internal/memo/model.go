package memo

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Zone is the single fixed time zone (UTC+8) used for every timestamp, both
// in storage and on the wire, regardless of client locale.
var Zone = time.FixedZone("UTC+8", 8*60*60)

// TimeLayout is the wire format for timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// EmptyMessage is the rich-text editor's empty-paragraph sentinel. It must
// never be stored as a memo body.
const EmptyMessage = "<p><br></p>"

// Time wraps time.Time so timestamps cross the JSON and SQL boundaries in the
// fixed zone with second precision.
type Time struct {
	time.Time
}

// Now returns the current instant truncated to seconds in the fixed zone.
func Now() Time {
	return Time{time.Now().In(Zone).Truncate(time.Second)}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.In(Zone).Format(TimeLayout) + `"`), nil
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, Zone)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	return t.In(Zone), nil
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.In(Zone)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("unsupported time source %T", src)
	}
}

func (t *Time) scanString(s string) error {
	parsed, err := time.ParseInLocation(TimeLayout, s, Zone)
	if err != nil {
		return fmt.Errorf("scan time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Memo is the sole persisted entity: one rich-text note owned by one user.
// IDs are server-assigned uuids; clients may hold a temporary numeric id
// until the create round-trip reconciles it.
type Memo struct {
	ID        string `gorm:"primaryKey" json:"_id"`
	Message   string `gorm:"type:text;not null" json:"message"`
	UserID    string `gorm:"index;not null" json:"userId"`
	CreatedAt Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt Time   `gorm:"not null" json:"updatedAt"`
}
