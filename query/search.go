package query

import (
	"fmt"
	"regexp"
	"strings"

	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/storage"
)

func maxSearchLength() int {
	return config.MaxSearchLength
}

var searchTokenRe = regexp.MustCompile(`"[^"]*"|\S+`)

var allowedSearchColumns = map[string]bool{
	"post_title":   true,
	"post_excerpt": true,
	"post_content": true,
}

// parseSearchTerms splits the search string into terms plus a parallel
// exclusion mask. Sentence mode keeps the whole string as one term.
func (q *Query) parseSearchTerms() {
	v := &q.Vars
	v.SearchTerms = nil
	v.SearchExcluded = nil

	if v.S == "" {
		return
	}

	if v.Sentence {
		v.SearchTerms = []string{v.S}
		v.SearchExcluded = []bool{false}
		return
	}

	prefix := v.SearchExcludePrefix
	if prefix == "" {
		prefix = "-"
	}

	for _, token := range searchTokenRe.FindAllString(v.S, -1) {
		excluded := false
		if strings.HasPrefix(token, prefix) && len(token) > len(prefix) {
			excluded = true
			token = token[len(prefix):]
		}

		token = strings.Trim(token, `"`)
		token = strings.Trim(token, ", ")
		if token == "" {
			continue
		}

		v.SearchTerms = append(v.SearchTerms, token)
		v.SearchExcluded = append(v.SearchExcluded, excluded)
	}

	// Tokenization that eats everything falls back to the raw string.
	if len(v.SearchTerms) == 0 {
		v.SearchTerms = []string{v.S}
		v.SearchExcluded = []bool{false}
	}
}

func (q *Query) searchColumns() []string {
	var cols []string
	for _, col := range q.Vars.SearchColumns {
		if allowedSearchColumns[col] {
			cols = append(cols, col)
		}
	}

	if len(cols) == 0 {
		cols = []string{"post_title", "post_excerpt", "post_content"}
	}

	return cols
}

// searchWhere renders one parenthesized group per term: inclusions as an OR
// across the searched columns, exclusions as an AND of negated matches.
// Unauthenticated viewers additionally never match protected rows.
func (q *Query) searchWhere() string {
	v := &q.Vars
	if len(v.SearchTerms) == 0 {
		return ""
	}
	cols := q.searchColumns()

	var groups []string
	for i, term := range v.SearchTerms {
		likeOp, andor := "ILIKE", " OR "
		if v.SearchExcluded[i] {
			likeOp, andor = "NOT ILIKE", " AND "
		}

		like := "%" + storage.EscLike(term) + "%"
		if v.Exact {
			like = storage.EscLike(term)
		}

		var parts []string
		for _, col := range cols {
			parts = append(parts, storage.Prepare(
				fmt.Sprintf("(%s.%s %s %%s)", storage.PostsTable, col, likeOp), like))
		}
		groups = append(groups, "("+strings.Join(parts, andor)+")")
	}

	search := strings.Join(groups, " AND ")
	if q.deps.CurrentUser == nil {
		search += fmt.Sprintf(" AND (%s.post_password = '')", storage.PostsTable)
	}

	return " AND (" + search + ") "
}

// searchOrderBy ranks results by match quality: exact title match first,
// then all terms in the title, any term in the title, full string in the
// excerpt, full string in the content, everything else by date. Sentence
// searches and exclusions skip the ranking and fall back to recency.
func (q *Query) searchOrderBy() string {
	v := &q.Vars
	dateDesc := storage.PostsTable + ".post_date DESC"

	if len(v.SearchTerms) == 0 || v.Sentence || hasExclusions(v.SearchExcluded) {
		return dateDesc
	}

	title := storage.PostsTable + ".post_title"
	excerpt := storage.PostsTable + ".post_excerpt"
	content := storage.PostsTable + ".post_content"

	fullLike := "%" + storage.EscLike(v.S) + "%"

	var whens []string
	whens = append(whens, storage.Prepare("WHEN "+title+" ILIKE %s THEN 1", storage.EscLike(v.S)))

	// Per-term ranking is capped; past the cap only the whole-string tiers
	// survive.
	if len(v.SearchTerms) > 1 && len(v.SearchTerms) < config.SearchRelevanceTermLimit {
		allLike := "%" + joinEscaped(v.SearchTerms) + "%"
		whens = append(whens, storage.Prepare("WHEN "+title+" ILIKE %s THEN 2", allLike))

		var anyTerm []string
		for _, term := range v.SearchTerms {
			anyTerm = append(anyTerm, storage.Prepare(title+" ILIKE %s", "%"+storage.EscLike(term)+"%"))
		}
		whens = append(whens, "WHEN "+strings.Join(anyTerm, " OR ")+" THEN 3")
	}
	whens = append(whens, storage.Prepare("WHEN "+excerpt+" ILIKE %s THEN 4", fullLike))
	whens = append(whens, storage.Prepare("WHEN "+content+" ILIKE %s THEN 5", fullLike))

	return "(CASE " + strings.Join(whens, " ") + " ELSE 6 END), " + dateDesc
}

func hasExclusions(mask []bool) bool {
	for _, excluded := range mask {
		if excluded {
			return true
		}
	}

	return false
}

func joinEscaped(terms []string) string {
	escaped := make([]string, len(terms))
	for i, term := range terms {
		escaped[i] = storage.EscLike(term)
	}

	return strings.Join(escaped, "%")
}
