package metaquery

import (
	"context"
	"fmt"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"
)

// Builder turns declarative meta clauses into JOIN/WHERE fragments over the
// postmeta table. Each non-EXISTS clause gets its own aliased join so
// ORDER BY can sort by a named clause. Clauses combine with AND.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) GetSQL(ctx context.Context, clauses []models.MetaClause, table, idCol string) (models.MetaPredicateSQL, error) {
	out := models.MetaPredicateSQL{
		ClauseAliases: make(map[string]models.MetaClauseAlias),
	}

	primary := table + "." + idCol
	conds := make([]string, 0, len(clauses))

	for i, clause := range clauses {
		compare := strings.ToUpper(clause.Compare)
		if compare == "" {
			if len(clause.Value) > 1 {
				compare = "IN"
			} else {
				compare = "="
			}
		}

		switch compare {
		case "EXISTS":
			conds = append(conds, fmt.Sprintf(
				"EXISTS ( SELECT 1 FROM %s WHERE %s.post_id = %s AND %s.meta_key = %s )",
				storage.PostMetaTable, storage.PostMetaTable, primary, storage.PostMetaTable,
				storage.QuoteLiteral(clause.Key),
			))
			continue
		case "NOT EXISTS":
			conds = append(conds, fmt.Sprintf(
				"NOT EXISTS ( SELECT 1 FROM %s WHERE %s.post_id = %s AND %s.meta_key = %s )",
				storage.PostMetaTable, storage.PostMetaTable, primary, storage.PostMetaTable,
				storage.QuoteLiteral(clause.Key),
			))
			continue
		}

		alias := fmt.Sprintf("mt%d", i+1)
		castType := sqlCast(clause.Type)

		out.Join += fmt.Sprintf(
			" INNER JOIN %s AS %s ON ( %s = %s.post_id )",
			storage.PostMetaTable, alias, primary, alias,
		)

		name := clause.Name
		if name == "" {
			name = clause.Key
		}
		if name != "" {
			out.ClauseAliases[name] = models.MetaClauseAlias{Alias: alias, Cast: castType}
		}

		cond := fmt.Sprintf("%s.meta_key = %s", alias, storage.QuoteLiteral(clause.Key))

		valueExpr := alias + ".meta_value"
		if castType != "CHAR" {
			valueExpr = fmt.Sprintf("CAST(%s.meta_value AS %s)", alias, castType)
		}

		switch compare {
		case "IN", "NOT IN":
			if len(clause.Value) == 0 {
				conds = append(conds, "0 = 1")
				continue
			}
			cond += fmt.Sprintf(" AND %s %s (%s)", valueExpr, compare, quoteValues(clause.Value, castType))
		case "BETWEEN", "NOT BETWEEN":
			if len(clause.Value) < 2 {
				conds = append(conds, "0 = 1")
				continue
			}
			cond += fmt.Sprintf(" AND %s %s %s AND %s",
				valueExpr, compare, quoteValue(clause.Value[0], castType), quoteValue(clause.Value[1], castType))
		case "LIKE", "NOT LIKE":
			val := ""
			if len(clause.Value) > 0 {
				val = clause.Value[0]
			}
			cond += " AND " + storage.Prepare(valueExpr+" "+compare+" %s", "%"+storage.EscLike(val)+"%")
		default: // =, !=, <, <=, >, >=
			val := ""
			if len(clause.Value) > 0 {
				val = clause.Value[0]
			}
			cond += fmt.Sprintf(" AND %s %s %s", valueExpr, compare, quoteValue(val, castType))
		}

		conds = append(conds, "( "+cond+" )")
	}

	if len(conds) > 0 {
		out.Where = " AND ( " + strings.Join(conds, " AND ") + " )"
	}

	return out, nil
}

func sqlCast(metaType string) string {
	switch strings.ToUpper(metaType) {
	case "NUMERIC":
		return "NUMERIC"
	case "SIGNED":
		return "BIGINT"
	case "DECIMAL":
		return "DECIMAL"
	case "DATE":
		return "DATE"
	case "DATETIME":
		return "TIMESTAMP"
	case "TIME":
		return "TIME"
	default:
		return "CHAR"
	}
}

func quoteValue(val, castType string) string {
	if castType == "CHAR" {
		return storage.QuoteLiteral(val)
	}

	// Numeric-ish casts still get quoted and re-cast so malformed input
	// cannot break out of the literal.
	return fmt.Sprintf("CAST(%s AS %s)", storage.QuoteLiteral(val), castType)
}

func quoteValues(vals []string, castType string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = quoteValue(v, castType)
	}

	return strings.Join(parts, ", ")
}
