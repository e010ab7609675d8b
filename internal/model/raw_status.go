package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// RawStatusKind tags the three possible shapes of the legacy status column.
type RawStatusKind int

const (
	// RawAbsent means the column was never written.
	RawAbsent RawStatusKind = iota
	// RawLegacyBool means the column still carries the old boolean encoding
	// ("", "0", "1", numeric 0/1 or a real boolean).
	RawLegacyBool
	// RawExplicit means the column carries an actual status string.
	RawExplicit
)

// RawStatus is the normalized form of the legacy status column. Historically
// the column was a boolean flag and was later overloaded with status strings,
// so "", "0", "1", 0, 1, true and false must all be recognized as the old
// encoding rather than as status values. Normalization happens once at the
// database/JSON boundary; everything downstream only sees the tagged union.
type RawStatus struct {
	Kind     RawStatusKind
	Explicit Status
	Legacy   bool
}

// ExplicitStatus returns the explicit status string and whether one is set.
func (r RawStatus) ExplicitStatus() (Status, bool) {
	if r.Kind == RawExplicit {
		return r.Explicit, true
	}
	return "", false
}

// normalizeRawStatus maps a raw string column value onto the tagged union.
func normalizeRawStatus(s string) RawStatus {
	switch strings.TrimSpace(s) {
	case "", "0", "false":
		return RawStatus{Kind: RawLegacyBool, Legacy: false}
	case "1", "true":
		return RawStatus{Kind: RawLegacyBool, Legacy: true}
	default:
		return RawStatus{Kind: RawExplicit, Explicit: Status(strings.TrimSpace(s))}
	}
}

// Scan implements sql.Scanner.
func (r *RawStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = RawStatus{Kind: RawAbsent}
	case string:
		*r = normalizeRawStatus(v)
	case []byte:
		*r = normalizeRawStatus(string(v))
	case bool:
		*r = RawStatus{Kind: RawLegacyBool, Legacy: v}
	case int64:
		*r = RawStatus{Kind: RawLegacyBool, Legacy: v != 0}
	case float64:
		*r = RawStatus{Kind: RawLegacyBool, Legacy: v != 0}
	default:
		return fmt.Errorf("raw status: unsupported column type %T", value)
	}
	return nil
}

// Value implements driver.Valuer. Legacy booleans are written back in their
// historical string encoding so older readers keep working.
func (r RawStatus) Value() (driver.Value, error) {
	switch r.Kind {
	case RawExplicit:
		return string(r.Explicit), nil
	case RawLegacyBool:
		if r.Legacy {
			return "1", nil
		}
		return "0", nil
	default:
		return nil, nil
	}
}

// UnmarshalJSON accepts strings, numbers, booleans and null, normalizing all
// of them into the tagged union.
func (r *RawStatus) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("raw status: %w", err)
	}
	switch t := v.(type) {
	case nil:
		*r = RawStatus{Kind: RawAbsent}
	case string:
		*r = normalizeRawStatus(t)
	case bool:
		*r = RawStatus{Kind: RawLegacyBool, Legacy: t}
	case float64:
		*r = RawStatus{Kind: RawLegacyBool, Legacy: t != 0}
	default:
		return fmt.Errorf("raw status: unsupported JSON value %v", v)
	}
	return nil
}

// MarshalJSON mirrors Value: explicit statuses as strings, legacy booleans in
// their historical encoding, absent as null.
func (r RawStatus) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RawExplicit:
		return json.Marshal(string(r.Explicit))
	case RawLegacyBool:
		if r.Legacy {
			return json.Marshal("1")
		}
		return json.Marshal("0")
	default:
		return json.Marshal(nil)
	}
}
