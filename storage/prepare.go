package storage

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/spf13/cast"
)

var (
	placeholderOnce  sync.Once
	placeholderToken string
)

// PlaceholderEscape returns the process-local token that stands in for a
// literal percent sign inside prepared SQL. Random per process so crafted
// input cannot collide with it; RemovePlaceholderEscape restores the
// percent signs right before execution (and when building cache keys, so
// keys do not vary run to run).
func PlaceholderEscape() string {
	placeholderOnce.Do(func() {
		sum := md5.Sum([]byte(uuid.NewString()))
		placeholderToken = "{" + hex.EncodeToString(sum[:]) + "}"
	})

	return placeholderToken
}

// RemovePlaceholderEscape turns placeholder tokens back into percent signs.
func RemovePlaceholderEscape(sql string) string {
	return strings.ReplaceAll(sql, PlaceholderEscape(), "%")
}

// Prepare substitutes %d, %f and %s placeholders with escaped literal
// values. String values are quoted and any percent sign inside them is
// replaced with the placeholder token, which keeps user-supplied LIKE
// wildcards inert until RemovePlaceholderEscape.
func Prepare(query string, args ...any) string {
	var (
		b    strings.Builder
		argi int
	)

	nextArg := func() any {
		if argi >= len(args) {
			return ""
		}
		arg := args[argi]
		argi++
		return arg
	}

	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}

		if i+1 >= len(query) {
			b.WriteString(PlaceholderEscape())
			break
		}

		switch query[i+1] {
		case 'd':
			b.WriteString(strconv.FormatInt(cast.ToInt64(nextArg()), 10))
			i++
		case 'f':
			b.WriteString(strconv.FormatFloat(cast.ToFloat64(nextArg()), 'f', -1, 64))
			i++
		case 's':
			quoted := pq.QuoteLiteral(cast.ToString(nextArg()))
			b.WriteString(strings.ReplaceAll(quoted, "%", PlaceholderEscape()))
			i++
		case '%':
			b.WriteString(PlaceholderEscape())
			i++
		default:
			// Stray percent in the template; neutralize it.
			b.WriteString(PlaceholderEscape())
		}
	}

	return b.String()
}

// QuoteLiteral escapes one string value for literal embedding.
func QuoteLiteral(s string) string {
	return pq.QuoteLiteral(s)
}

// QuoteStringList renders 'a', 'b', 'c' for IN lists.
func QuoteStringList(vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = pq.QuoteLiteral(v)
	}

	return strings.Join(quoted, ", ")
}

// JoinIDs renders 1,2,3 for numeric IN lists.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	return strings.Join(parts, ",")
}

// EscLike escapes LIKE metacharacters in user input before it is embedded
// as a %s argument.
func EscLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)

	return s
}
