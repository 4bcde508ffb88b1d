package query

import (
	"fmt"
	"strings"

	"ucode/ucode_content_query_service/storage"
)

// orderByClause resolves the requested ordering through the allow-list into
// ORDER BY content. Anything unrecognized is dropped; dropping everything
// falls back to recency.
func (q *Query) orderByClause() string {
	v := &q.Vars
	t := storage.PostsTable

	if v.OrderBy == "none" {
		return ""
	}

	if v.OrderBy == "" {
		if q.IsSearch {
			return q.searchOrderBy()
		}
		return t + ".post_date " + v.Order
	}

	var parts []string
	for _, token := range strings.Fields(v.OrderBy) {
		expr, usesOrder, ok := q.resolveOrderToken(token)
		if !ok {
			continue
		}
		if usesOrder {
			expr += " " + v.Order
		}
		parts = append(parts, expr)
	}

	if len(parts) == 0 {
		return t + ".post_date " + v.Order
	}

	return strings.Join(parts, ", ")
}

func (q *Query) resolveOrderToken(token string) (expr string, usesOrder, ok bool) {
	v := &q.Vars
	t := storage.PostsTable

	columns := map[string]string{
		"ID": "id", "id": "id",
		"author": "post_author", "post_author": "post_author",
		"title": "post_title", "post_title": "post_title",
		"name": "post_name", "post_name": "post_name",
		"type": "post_type", "post_type": "post_type",
		"date": "post_date", "post_date": "post_date",
		"modified": "post_modified", "post_modified": "post_modified",
		"parent": "post_parent", "post_parent": "post_parent",
		"comment_count": "comment_count",
		"menu_order":    "menu_order",
		"mime_type":     "post_mime_type", "post_mime_type": "post_mime_type",
	}
	if col, found := columns[token]; found {
		return t + "." + col, true, true
	}

	switch {
	case token == "rand":
		return "RANDOM()", false, true

	case strings.HasPrefix(token, "rand(") && strings.HasSuffix(token, ")"):
		// Seeded randomness must be stable across pagination requests, so
		// it hashes the row id with the seed instead of calling RANDOM().
		seed := token[len("rand(") : len(token)-1]
		return storage.Prepare(fmt.Sprintf("MD5(%s.id::text || %%s)", t), seed), false, true

	case token == "post__in" && len(v.PostIn) > 0:
		return fmt.Sprintf("array_position(ARRAY[%s]::bigint[], %s.id)",
			storage.JoinIDs(v.PostIn), t), false, true

	case token == "post_name__in" && len(v.PostNameIn) > 0:
		return fmt.Sprintf("array_position(ARRAY[%s]::text[], %s.post_name)",
			storage.QuoteStringList(v.PostNameIn), t), false, true

	case token == "post_parent__in" && len(v.PostParentIn) > 0:
		return fmt.Sprintf("array_position(ARRAY[%s]::bigint[], %s.post_parent)",
			storage.JoinIDs(v.PostParentIn), t), false, true

	case token == "relevance":
		return q.searchOrderBy(), false, true

	case token == "meta_value" && v.MetaKey != "":
		if alias, found := q.metaAliases[v.MetaKey]; found {
			return metaOrderExpr(alias.Alias, alias.Cast), true, true
		}
		return "", false, false

	case token == "meta_value_num" && v.MetaKey != "":
		if alias, found := q.metaAliases[v.MetaKey]; found {
			return metaOrderExpr(alias.Alias, "NUMERIC"), true, true
		}
		return "", false, false
	}

	// A named meta clause sorts by its aliased join.
	if alias, found := q.metaAliases[token]; found {
		return metaOrderExpr(alias.Alias, alias.Cast), true, true
	}

	return "", false, false
}

func metaOrderExpr(alias, castType string) string {
	if castType == "" || castType == "CHAR" {
		return alias + ".meta_value"
	}

	return fmt.Sprintf("CAST(%s.meta_value AS %s)", alias, castType)
}
