package flow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
ParamError reports a node parameter that was missing or malformed.
*/
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Missing builds the error for a required field that neither source provided
func Missing(field string) *ParamError {
	return &ParamError{Field: field, Reason: "not provided"}
}

// Malformed builds the error for a field holding the wrong kind of value
func Malformed(field, reason string) *ParamError {
	return &ParamError{Field: field, Reason: reason}
}

/*
Resolve is the single static-or-message lookup every node parameter goes
through: a non-empty node property wins, otherwise the message field of
the same name is used. Empty strings and nil count as absent.
*/
func Resolve(props Properties, msg Message, field string) (any, bool) {
	if value, ok := props[field]; ok && present(value) {
		return value, true
	}
	if value, ok := msg[field]; ok && present(value) {
		return value, true
	}
	return nil, false
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	}
	return true
}

// ResolveString resolves an optional text parameter
func ResolveString(props Properties, msg Message, field string) (string, error) {
	value, ok := Resolve(props, msg, field)
	if !ok {
		return "", nil
	}

	text, ok := value.(string)
	if !ok {
		return "", Malformed(field, fmt.Sprintf("expected a string, got %T", value))
	}
	return text, nil
}

// RequireString resolves a mandatory text parameter
func RequireString(props Properties, msg Message, field string) (string, error) {
	text, err := ResolveString(props, msg, field)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", Missing(field)
	}
	return text, nil
}

/*
ResolveBool resolves a flag. A set node property wins; otherwise the message
decides. Booleans and the strings "true"/"false" are accepted.
*/
func ResolveBool(props Properties, msg Message, field string) (bool, error) {
	if value, ok := props[field]; ok && present(value) {
		flag, err := toBool(field, value)
		if err != nil || flag {
			return flag, err
		}
	}

	if value, ok := msg[field]; ok && present(value) {
		return toBool(field, value)
	}
	return false, nil
}

func toBool(field string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		flag, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, Malformed(field, "expected a boolean")
		}
		return flag, nil
	}
	return false, Malformed(field, fmt.Sprintf("expected a boolean, got %T", value))
}

/*
ResolvePositiveInt resolves an optional count such as maxkeys. Zero means
not provided; anything provided must be a whole number above zero.
*/
func ResolvePositiveInt(props Properties, msg Message, field string) (int32, error) {
	value, ok := Resolve(props, msg, field)
	if !ok {
		return 0, nil
	}

	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, Malformed(field, "expected a positive integer")
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, Malformed(field, "expected a positive integer")
		}
		n = parsed
	default:
		return 0, Malformed(field, fmt.Sprintf("expected a positive integer, got %T", value))
	}

	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, Malformed(field, "expected a positive integer")
	}
	return int32(n), nil
}
