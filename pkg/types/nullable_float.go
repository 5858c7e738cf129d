package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NullableFloat tracks whether a numeric field was explicitly present in JSON.
// A JSON null or an empty string is present-but-cleared; numeric strings are
// accepted alongside JSON numbers.
type NullableFloat struct {
	Valid bool
	Value *float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableFloat) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			n.Valid = true
			n.Value = nil
			return nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		n.Valid = true
		n.Value = &parsed
		return nil
	}

	var parsed float64
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Ptr returns the value when present, nil otherwise.
func (n NullableFloat) Ptr() *float64 {
	if !n.Valid || n.Value == nil {
		return nil
	}
	v := *n.Value
	return &v
}
