package taxquery

import (
	"context"
	"fmt"
	"strings"

	"ucode/ucode_content_query_service/models"
	psqlpool "ucode/ucode_content_query_service/pool"
	"ucode/ucode_content_query_service/storage"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Builder turns declarative taxonomy clauses into JOIN/WHERE fragments for
// the posts table. Clauses are combined with AND. An unresolvable term list
// degrades to an always-false predicate, never an error.
type Builder struct {
	db *psqlpool.Pool
}

func NewBuilder(db *psqlpool.Pool) *Builder {
	return &Builder{db: db}
}

func (b *Builder) GetSQL(ctx context.Context, clauses []models.TaxClause, table, idCol string) (models.TaxPredicateSQL, error) {
	out := models.TaxPredicateSQL{
		QueriedTerms: make(map[string][]string),
	}

	primary := table + "." + idCol
	conds := make([]string, 0, len(clauses))

	for _, clause := range clauses {
		op := strings.ToUpper(clause.Operator)
		if op == "" {
			op = "IN"
		}

		if op != "EXISTS" && op != "NOT EXISTS" {
			out.QueriedTerms[clause.Taxonomy] = append(out.QueriedTerms[clause.Taxonomy], clause.Terms...)
		}

		switch op {
		case "EXISTS", "NOT EXISTS":
			sub := fmt.Sprintf(
				"SELECT tr.object_id FROM %s tr JOIN %s tt ON tt.id = tr.term_taxonomy_id WHERE tt.taxonomy = %s AND tr.object_id = %s",
				storage.TermRelationshipsTable,
				storage.TermTaxonomyTable,
				storage.QuoteLiteral(clause.Taxonomy),
				primary,
			)
			if op == "EXISTS" {
				conds = append(conds, "EXISTS ( "+sub+" )")
			} else {
				conds = append(conds, "NOT EXISTS ( "+sub+" )")
			}
			continue
		}

		ttIDs, err := b.termTaxonomyIDs(ctx, clause)
		if err != nil {
			return out, err
		}

		if len(ttIDs) == 0 {
			if op == "NOT IN" {
				// Nothing to exclude.
				continue
			}
			conds = append(conds, "0 = 1")
			continue
		}

		idList := storage.JoinIDs(ttIDs)

		switch op {
		case "IN":
			conds = append(conds, fmt.Sprintf(
				"%s IN ( SELECT object_id FROM %s WHERE term_taxonomy_id IN (%s) )",
				primary, storage.TermRelationshipsTable, idList,
			))
		case "NOT IN":
			conds = append(conds, fmt.Sprintf(
				"%s NOT IN ( SELECT object_id FROM %s WHERE term_taxonomy_id IN (%s) )",
				primary, storage.TermRelationshipsTable, idList,
			))
		case "AND":
			conds = append(conds, fmt.Sprintf(
				"( SELECT COUNT(1) FROM %s WHERE term_taxonomy_id IN (%s) AND object_id = %s ) = %d",
				storage.TermRelationshipsTable, idList, primary, len(ttIDs),
			))
		default:
			// Unknown operator: drop the clause.
		}
	}

	if len(conds) > 0 {
		out.Where = " AND ( " + strings.Join(conds, " AND ") + " )"
	}

	return out, nil
}

// termTaxonomyIDs resolves a clause's terms to term_taxonomy ids,
// optionally pulling in descendant terms.
func (b *Builder) termTaxonomyIDs(ctx context.Context, clause models.TaxClause) ([]int64, error) {
	if len(clause.Terms) == 0 {
		return nil, nil
	}

	builder := sb.
		Select("tt.id").
		From(storage.TermTaxonomyTable + " tt").
		Where(squirrel.Eq{"tt.taxonomy": clause.Taxonomy})

	switch clause.Field {
	case "slug":
		builder = builder.
			Join(storage.TermsTable + " t ON t.id = tt.term_id").
			Where(squirrel.Eq{"t.slug": clause.Terms})
	case "name":
		builder = builder.
			Join(storage.TermsTable + " t ON t.id = tt.term_id").
			Where(squirrel.Eq{"t.name": clause.Terms})
	default: // term_id
		ids := make([]int64, 0, len(clause.Terms))
		for _, term := range clause.Terms {
			if id := cast.ToInt64(term); id > 0 {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, nil
		}
		builder = builder.Where(squirrel.Eq{"tt.term_id": ids})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building term taxonomy query")
	}

	if clause.IncludeChildren {
		// Recursive descent over term_taxonomy.parent.
		query = fmt.Sprintf(
			`WITH RECURSIVE tt_tree AS ( %s UNION SELECT child.id FROM %s child JOIN tt_tree ON child.parent = ( SELECT term_id FROM %s WHERE id = tt_tree.id ) ) SELECT id FROM tt_tree`,
			query, storage.TermTaxonomyTable, storage.TermTaxonomyTable,
		)
	}

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while resolving term taxonomy ids")
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "error while scanning term taxonomy id")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "term taxonomy rows error")
	}

	return ids, nil
}
