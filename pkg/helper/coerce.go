package helper

import (
	"strings"

	"github.com/spf13/cast"
)

// AbsInt coerces loose input to a non-negative int64. Non-scalar or
// negative input collapses to 0; callers that care must check the original.
func AbsInt(val any) int64 {
	n := cast.ToInt64(val)
	if n < 0 {
		return 0
	}

	return n
}

// IsBadID reports input that looked like an identity selector but does not
// coerce to a positive integer: non-scalar, non-numeric or negative.
func IsBadID(val any) bool {
	if val == nil {
		return true
	}

	n, err := cast.ToInt64E(val)
	if err != nil {
		return true
	}

	return n < 0
}

// ToIDList coerces a scalar or list value into a list of positive IDs,
// dropping anything that does not coerce.
func ToIDList(val any) []int64 {
	if val == nil {
		return nil
	}

	raw := cast.ToSlice(val)
	if raw == nil {
		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			for _, part := range strings.Split(s, ",") {
				raw = append(raw, strings.TrimSpace(part))
			}
		} else {
			raw = []any{val}
		}
	}

	out := make([]int64, 0, len(raw))
	for _, item := range raw {
		n, err := cast.ToInt64E(item)
		if err != nil || n == 0 {
			continue
		}
		if n < 0 {
			n = -n
		}
		out = append(out, n)
	}

	return out
}

// ToStringList coerces a scalar or comma-separated or list value into a
// trimmed string list, dropping empties.
func ToStringList(val any) []string {
	if val == nil {
		return nil
	}

	var raw []string
	switch v := val.(type) {
	case string:
		raw = strings.Split(v, ",")
	default:
		raw = cast.ToStringSlice(val)
		if raw == nil {
			raw = []string{cast.ToString(val)}
		}
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}

	return out
}

// Digits strips every non-digit character.
func Digits(val any) string {
	s := cast.ToString(val)

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
