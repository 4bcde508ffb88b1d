package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"

	"github.com/pkg/errors"
)

// buildClauses assembles the SQL fragments from the normalized record. The
// conjunct order is fixed; external mutation only happens at the two clause
// checkpoints and never reorders what was already emitted.
func (q *Query) buildClauses(ctx context.Context) error {
	v := &q.Vars
	t := storage.PostsTable
	c := models.SQLClauses{}

	switch v.Fields {
	case "ids":
		c.Fields = t + ".id"
	case "id=>parent":
		c.Fields = t + ".id, " + t + ".post_parent"
	default:
		c.Fields = storage.PostColumnsSQL(t)
	}

	var where strings.Builder

	// Identity selectors pin the row set before anything else.
	if v.P > 0 {
		fmt.Fprintf(&where, " AND %s.id = %d", t, v.P)
	}
	if v.AttachmentID > 0 {
		fmt.Fprintf(&where, " AND %s.id = %d", t, v.AttachmentID)
	}
	if v.PageID > 0 && !q.IsPostsPage {
		fmt.Fprintf(&where, " AND %s.id = %d", t, v.PageID)
	}

	if v.HasMenuOrder {
		fmt.Fprintf(&where, " AND %s.menu_order = %d", t, v.MenuOrder)
	}

	where.WriteString(q.compactDateWhere())
	where.WriteString(q.dateWhere())
	where.WriteString(dateQueryWhere(v.DateQuery))

	if v.Name != "" {
		fmt.Fprintf(&where, " AND %s.post_name = %s", t, storage.QuoteLiteral(v.Name))
	} else if v.Pagename != "" && q.queriedObjectID > 0 && !q.IsPostsPage {
		fmt.Fprintf(&where, " AND %s.id = %d", t, q.queriedObjectID)
	}
	if len(v.PostNameIn) > 0 {
		fmt.Fprintf(&where, " AND %s.post_name IN (%s)", t, storage.QuoteStringList(v.PostNameIn))
	}

	if len(v.PostIn) > 0 {
		fmt.Fprintf(&where, " AND %s.id IN (%s)", t, storage.JoinIDs(v.PostIn))
	}
	if len(v.PostNotIn) > 0 {
		fmt.Fprintf(&where, " AND %s.id NOT IN (%s)", t, storage.JoinIDs(v.PostNotIn))
	}

	if v.HasPostParent {
		fmt.Fprintf(&where, " AND %s.post_parent = %d", t, v.PostParent)
	}
	if len(v.PostParentIn) > 0 {
		fmt.Fprintf(&where, " AND %s.post_parent IN (%s)", t, storage.JoinIDs(v.PostParentIn))
	}
	if len(v.PostParentNotIn) > 0 {
		fmt.Fprintf(&where, " AND %s.post_parent NOT IN (%s)", t, storage.JoinIDs(v.PostParentNotIn))
	}

	where.WriteString(q.searchWhere())

	q.parseTaxQuery()
	if len(q.taxClauses) > 0 && q.deps.Tax != nil {
		res, err := q.deps.Tax.GetSQL(ctx, q.taxClauses, t, "id")
		if err != nil {
			return errors.Wrap(err, "error while building taxonomy predicates")
		}
		c.Join += res.Join
		where.WriteString(res.Where)
		q.queriedTerms = res.QueriedTerms
		if res.Join != "" {
			c.GroupBy = t + ".id"
		}
	}

	metaClauses := q.metaClauseList()
	if len(metaClauses) > 0 && q.deps.Meta != nil {
		res, err := q.deps.Meta.GetSQL(ctx, metaClauses, t, "id")
		if err != nil {
			return errors.Wrap(err, "error while building meta predicates")
		}
		c.Join += res.Join
		where.WriteString(res.Where)
		q.metaAliases = res.ClauseAliases
		if res.Join != "" {
			c.GroupBy = t + ".id"
		}
	}

	if err := q.authorWhere(ctx, &where); err != nil {
		return err
	}

	types := q.queriedPostTypes()
	if len(types) > 0 {
		fmt.Fprintf(&where, " AND %s.post_type IN (%s)", t, storage.QuoteStringList(types))
	}
	where.WriteString(q.statusWhere(types))

	if v.CommentCountCompare != "" {
		fmt.Fprintf(&where, " AND %s.comment_count %s %d", t, v.CommentCountCompare, v.CommentCountValue)
	}

	where.WriteString(mimeTypeWhere(v.PostMimeType, t))

	if v.HasPassword != nil {
		op := "="
		if *v.HasPassword {
			op = "!="
		}
		fmt.Fprintf(&where, " AND %s.post_password %s ''", t, op)
	}
	if v.PostPassword != "" {
		fmt.Fprintf(&where, " AND %s.post_password = %s", t, storage.QuoteLiteral(v.PostPassword))
	}

	c.Where = where.String()
	c.OrderBy = q.orderByClause()

	if !v.SuppressFilters {
		q.deps.Hooks.runClauses(&c, q)
	}

	c.Limits = q.limitsClause()

	if !v.SuppressFilters {
		q.deps.Hooks.runClausesRequest(&c, q)
	}

	q.Clauses = c

	return nil
}

// metaClauseList folds the shorthand meta vars in ahead of the explicit
// clause list so the shorthand clause always gets the first alias.
func (q *Query) metaClauseList() []models.MetaClause {
	v := &q.Vars
	if v.MetaKey == "" {
		return v.MetaQuery
	}

	shorthand := models.MetaClause{Key: v.MetaKey, Compare: v.MetaCompare}
	if v.MetaValue != "" {
		shorthand.Value = []string{v.MetaValue}
	} else if v.MetaCompare == "" {
		shorthand.Compare = "EXISTS"
	}

	return append([]models.MetaClause{shorthand}, v.MetaQuery...)
}

func (q *Query) authorWhere(ctx context.Context, where *strings.Builder) error {
	v := &q.Vars
	t := storage.PostsTable

	if v.AuthorName != "" && v.Author == 0 {
		author, err := q.deps.Storage.Posts().AuthorBySlug(ctx, v.AuthorName)
		if err != nil {
			return errors.Wrap(err, "error while resolving author name")
		}
		if author != nil {
			v.Author = author.ID
			q.queriedObjectID = author.ID
			q.queriedObject = &models.QueriedObject{Kind: models.QueriedAuthor, Author: author}
		} else {
			// Unknown author slug matches nothing.
			fmt.Fprintf(where, " AND %s.post_author = 0", t)
		}
	}

	if v.Author > 0 {
		fmt.Fprintf(where, " AND %s.post_author = %d", t, v.Author)
	}
	if len(v.AuthorIn) > 0 {
		fmt.Fprintf(where, " AND %s.post_author IN (%s)", t, storage.JoinIDs(v.AuthorIn))
	}
	if len(v.AuthorNotIn) > 0 {
		fmt.Fprintf(where, " AND %s.post_author NOT IN (%s)", t, storage.JoinIDs(v.AuthorNotIn))
	}

	return nil
}

// queriedPostTypes resolves the type filter, defaulting by singular context.
func (q *Query) queriedPostTypes() []string {
	v := &q.Vars

	if len(v.PostType) > 0 {
		if v.PostTypeAny() {
			return q.deps.Registry.SearchableTypeNames()
		}
		return v.PostType
	}

	// The flags decide, not the raw selectors: a page_id pointing at the
	// posts page has already cleared IsPage and must list posts.
	switch {
	case q.IsAttachment:
		return []string{"attachment"}
	case q.IsPage:
		return []string{"page"}
	default:
		return []string{"post"}
	}
}

func (q *Query) limitsClause() string {
	v := &q.Vars
	if v.NoPaging || v.PostsPerPage <= 0 {
		return ""
	}

	paged := v.Paged
	if paged < 1 {
		paged = 1
	}
	offset := (paged - 1) * v.PostsPerPage
	if v.HasOffset {
		offset = v.Offset
	}

	return fmt.Sprintf("LIMIT %d OFFSET %d", v.PostsPerPage, offset)
}

var mimeCleanRe = regexp.MustCompile(`[^-a-zA-Z0-9./*+]`)

// mimeTypeWhere matches full "type/subtype" values exactly, wildcards via
// LIKE, and a bare group name as a prefix over its subtypes.
func mimeTypeWhere(mimeTypes []string, table string) string {
	var conds []string
	for _, mt := range mimeTypes {
		mt = mimeCleanRe.ReplaceAllString(strings.TrimSpace(mt), "")
		if mt == "" {
			continue
		}

		col := table + ".post_mime_type"
		switch {
		case strings.Contains(mt, "*"):
			pattern := strings.ReplaceAll(storage.EscLike(strings.ReplaceAll(mt, "*", "\x00")), "\x00", "%")
			conds = append(conds, storage.Prepare(col+" ILIKE %s", pattern))
		case strings.Contains(mt, "/"):
			conds = append(conds, fmt.Sprintf("%s = %s", col, storage.QuoteLiteral(mt)))
		default:
			conds = append(conds, storage.Prepare(col+" ILIKE %s", storage.EscLike(mt)+"/%"))
		}
	}

	if len(conds) == 0 {
		return ""
	}

	return " AND (" + strings.Join(conds, " OR ") + ")"
}
