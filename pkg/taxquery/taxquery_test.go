package taxquery

import (
	"context"
	"testing"

	"ucode/ucode_content_query_service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The EXISTS operators and degenerate term lists never touch the database,
// so they are testable without a pool. Term resolution itself is covered by
// integration runs against a real schema.

func TestGetSQLExists(t *testing.T) {
	b := NewBuilder(nil)

	out, err := b.GetSQL(context.Background(), []models.TaxClause{
		{Taxonomy: "category", Operator: "EXISTS"},
	}, "posts", "id")
	require.NoError(t, err)

	assert.Contains(t, out.Where, "EXISTS ( SELECT tr.object_id FROM term_relationships tr")
	assert.Contains(t, out.Where, "tt.taxonomy = 'category'")
	assert.Empty(t, out.QueriedTerms)
}

func TestGetSQLNotExists(t *testing.T) {
	b := NewBuilder(nil)

	out, err := b.GetSQL(context.Background(), []models.TaxClause{
		{Taxonomy: "post_tag", Operator: "NOT EXISTS"},
	}, "posts", "id")
	require.NoError(t, err)

	assert.Contains(t, out.Where, "NOT EXISTS (")
}

func TestGetSQLEmptyTermsInIsFalse(t *testing.T) {
	b := NewBuilder(nil)

	out, err := b.GetSQL(context.Background(), []models.TaxClause{
		{Taxonomy: "category", Field: "term_id", Operator: "IN"},
	}, "posts", "id")
	require.NoError(t, err)

	assert.Contains(t, out.Where, "0 = 1")
}

func TestGetSQLEmptyTermsNotInDropped(t *testing.T) {
	b := NewBuilder(nil)

	out, err := b.GetSQL(context.Background(), []models.TaxClause{
		{Taxonomy: "category", Field: "term_id", Operator: "NOT IN"},
	}, "posts", "id")
	require.NoError(t, err)

	assert.Empty(t, out.Where, "nothing to exclude, no predicate")
}

func TestGetSQLCollectsQueriedTerms(t *testing.T) {
	b := NewBuilder(nil)

	out, err := b.GetSQL(context.Background(), []models.TaxClause{
		{Taxonomy: "category", Field: "term_id", Terms: []string{"junk"}, Operator: "IN"},
	}, "posts", "id")
	require.NoError(t, err)

	assert.Equal(t, []string{"junk"}, out.QueriedTerms["category"])
	// Unresolvable terms degrade to an always-false predicate.
	assert.Contains(t, out.Where, "0 = 1")
}
