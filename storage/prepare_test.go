package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareNumericPlaceholders(t *testing.T) {
	got := Prepare("SELECT * FROM posts WHERE id = %d AND score > %f", 7, 1.5)

	assert.Equal(t, "SELECT * FROM posts WHERE id = 7 AND score > 1.5", got)
}

func TestPrepareQuotesStrings(t *testing.T) {
	got := Prepare("post_name = %s", "it's")

	assert.Equal(t, "post_name = 'it''s'", got)
}

func TestPrepareNeutralizesPercentInValues(t *testing.T) {
	got := Prepare("post_title ILIKE %s", "100% true")

	assert.NotContains(t, got, "100% true", "raw percent must not survive")
	assert.Contains(t, got, PlaceholderEscape())

	restored := RemovePlaceholderEscape(got)
	assert.Contains(t, restored, "100% true")
	assert.NotContains(t, restored, PlaceholderEscape())
}

func TestPrepareIntentionalWildcards(t *testing.T) {
	got := Prepare("post_title ILIKE %s", "%"+EscLike("50% off")+"%")
	restored := RemovePlaceholderEscape(got)

	// The wrapping wildcards come back live; the user's percent stays
	// escaped for LIKE. Literal quoting doubles the backslash.
	assert.Contains(t, restored, "'%")
	assert.Contains(t, restored, `\\%`)
	assert.True(t, strings.HasSuffix(restored, "%'"))
}

func TestPlaceholderEscapeStablePerProcess(t *testing.T) {
	assert.Equal(t, PlaceholderEscape(), PlaceholderEscape())
	assert.Len(t, PlaceholderEscape(), 34) // "{" + 32 hex + "}"
}

func TestEscLike(t *testing.T) {
	assert.Equal(t, `\\\%\_`, EscLike(`\%_`))
}

func TestQuoteStringList(t *testing.T) {
	assert.Equal(t, "'a', 'b''c'", QuoteStringList([]string{"a", "b'c"}))
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "3,1,2", JoinIDs([]int64{3, 1, 2}))
}
