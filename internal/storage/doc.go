package storage

import (
	"fmt"
	"time"
)

// Field accessors used by the domain packages when unmarshalling docs.
// Absent or nil fields yield zero values; a present field of the wrong
// type is a malformed record and fails fast.

func StringField(data map[string]any, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", field, v)
	}
	return s, nil
}

func FloatField(data map[string]any, field string) (float64, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64: // Firestore decodes integral numbers as int64
		return float64(n), nil
	}
	return 0, fmt.Errorf("field %q: expected number, got %T", field, v)
}

func BoolField(data map[string]any, field string) (bool, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: expected bool, got %T", field, v)
	}
	return b, nil
}

// TimeField parses an RFC 3339 timestamp field.
func TimeField(data map[string]any, field string) (time.Time, error) {
	s, err := StringField(data, field)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q: %w", field, err)
	}
	return t, nil
}

// FormatTime renders a timestamp for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
