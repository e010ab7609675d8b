package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the wire format used for lifecycle timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp is an optional lifecycle timestamp. Malformed or unparseable
// values coming from the database or the wire are treated as absent, never as
// an error; status derivation must not fail on dirty historical data.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// NewTimestamp returns a set Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// parseTimestamp tries the wire layout first, then RFC3339.
func parseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return NewTimestamp(t)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewTimestamp(t)
	}
	return Timestamp{}
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*ts = Timestamp{}
	case time.Time:
		*ts = NewTimestamp(v)
	case string:
		*ts = parseTimestamp(v)
	case []byte:
		*ts = parseTimestamp(string(v))
	default:
		return fmt.Errorf("timestamp: unsupported column type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	if !ts.Valid {
		return nil, nil
	}
	return ts.Time, nil
}

// UnmarshalJSON accepts null and the two supported string layouts; anything
// unparseable becomes absent.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = Timestamp{}
		return nil
	}
	*ts = parseTimestamp(s)
	return nil
}

// MarshalJSON writes the wire layout or null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return json.Marshal(nil)
	}
	return json.Marshal(ts.Time.Format(TimeLayout))
}
