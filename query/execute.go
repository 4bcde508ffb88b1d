package query

import (
	"context"
	"fmt"
	"strings"

	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/pkg/logger"
	"ucode/ucode_content_query_service/storage"

	"github.com/pkg/errors"
)

// Run resolves a raw request end to end: normalize, assemble, execute,
// post-process. The returned slice is also retained on the query for the
// iteration loop.
func (q *Query) Run(ctx context.Context, raw Request) ([]models.Post, error) {
	if err := q.Parse(ctx, raw); err != nil {
		return nil, err
	}

	return q.GetPosts(ctx)
}

// GetPosts executes an already-parsed query.
func (q *Query) GetPosts(ctx context.Context) ([]models.Post, error) {
	v := &q.Vars

	if !v.SuppressFilters {
		q.deps.Hooks.runPreGetPosts(q)
	}
	// Extensions may have mutated the record past its fingerprint.
	if hashVars(q.Vars) != q.varsHash {
		q.refreshDerived()
	}

	if err := q.buildClauses(ctx); err != nil {
		return nil, err
	}

	// A non-singular comment feed is driven by the comments: the newest
	// approved comments are fetched first and the post query collapses to
	// the rows they reference.
	if q.IsCommentFeed && !q.IsSingular {
		if err := q.rewriteForCommentFeed(ctx); err != nil {
			return nil, err
		}
	}

	q.SQL = composeSQL(q.Clauses)
	requestChanged := false
	if !v.SuppressFilters {
		filtered := q.deps.Hooks.runRequest(q.SQL, q)
		requestChanged = filtered != q.SQL
		q.SQL = filtered
	}

	// An extension may supply the result outright; storage is never touched.
	if posts := q.deps.Hooks.runPrePosts(q); posts != nil {
		q.Posts = posts
		q.PostIDs = postIDs(posts)
		q.PostCount = len(posts)
		q.FoundPosts = int64(len(posts))
		q.MaxNumPages = 1

		return q.postProcess(ctx)
	}

	cacheable := v.CacheResults && !strings.Contains(q.Clauses.OrderBy, "RANDOM()") &&
		canonicalProjection(q.Clauses.Fields)
	key := ""
	if cacheable {
		key = q.cacheKey(q.SQL)
	}
	if key != "" {
		if hit, ok := q.deps.Cache.Get(key, config.CacheDomainPostQueries); ok {
			if cached, ok := hit.(cachedQuery); ok {
				if err := q.restoreCached(ctx, cached); err != nil {
					return nil, err
				}

				posts, err := q.postProcess(ctx)
				if err != nil {
					return nil, err
				}
				if !sameIDs(q.PostIDs, cached.PostIDs) {
					// A result pass reshaped the list; keep the envelope
					// current so later hits restore the same shape.
					q.storeCached(key)
				}

				return posts, nil
			}
			q.logger().Warn("unexpected query cache payload", logger.String("key", key))
		}
	}

	exec := q.deps.Storage.Executor()

	switch v.Fields {
	case "ids":
		ids, err := exec.IDColumn(ctx, q.SQL)
		if err != nil {
			return nil, err
		}
		q.PostIDs = ids
		q.PostCount = len(ids)
		if err := q.setFoundRows(ctx, len(ids)); err != nil {
			return nil, err
		}
		q.storeCached(key)

		return nil, nil

	case "id=>parent":
		pairs, err := exec.IDParentRows(ctx, q.SQL)
		if err != nil {
			return nil, err
		}
		q.IDParents = pairs
		q.PostIDs = make([]int64, len(pairs))
		for i, pair := range pairs {
			q.PostIDs[i] = pair.ID
		}
		q.PostCount = len(pairs)
		if err := q.setFoundRows(ctx, len(pairs)); err != nil {
			return nil, err
		}
		q.storeCached(key)

		return nil, nil
	}

	var posts []models.Post
	if q.shouldSplitQuery(requestChanged) {
		idClauses := q.Clauses
		idClauses.Fields = storage.PostsTable + ".id"

		ids, err := exec.IDColumn(ctx, composeSQL(idClauses))
		if err != nil {
			return nil, err
		}
		if err := q.setFoundRows(ctx, len(ids)); err != nil {
			return nil, err
		}

		posts, err = q.deps.Storage.Posts().GetByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "error while hydrating split query")
		}
	} else {
		var err error
		posts, err = exec.PostRows(ctx, q.SQL)
		if err != nil {
			return nil, err
		}
		if err := q.setFoundRows(ctx, len(posts)); err != nil {
			return nil, err
		}
	}

	q.Posts = posts
	q.PostIDs = postIDs(posts)
	q.PostCount = len(posts)
	q.storeCached(key)

	if q.IsCommentFeed && q.IsSingular {
		if err := q.loadCommentFeed(ctx); err != nil {
			return nil, err
		}
	}

	return q.postProcess(ctx)
}

// composeSQL concatenates the fragments in their fixed order.
func composeSQL(c models.SQLClauses) string {
	head := strings.TrimSpace(c.Distinct + " " + c.Fields)
	sql := "SELECT " + head + " FROM " + storage.PostsTable + c.Join + " WHERE 1=1" + c.Where

	if c.GroupBy != "" {
		sql += " GROUP BY " + c.GroupBy
	}
	if c.OrderBy != "" {
		sql += " ORDER BY " + c.OrderBy
	}
	if c.Limits != "" {
		sql += " " + c.Limits
	}

	return sql
}

// canonicalProjection reports whether the projection, after the clause
// checkpoints ran, is still one of the three shapes the cached envelope can
// rebuild. Anything else bypasses the plan cache.
func canonicalProjection(fields string) bool {
	t := storage.PostsTable
	switch fields {
	case t + ".id", t + ".id, " + t + ".post_parent", storage.PostColumnsSQL(t):
		return true
	}

	return false
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// shouldSplitQuery prefers an ID-only pass plus bulk hydration when the page
// is small or an external object cache can serve the rows. A statement
// rewritten by an extension is executed verbatim instead.
func (q *Query) shouldSplitQuery(requestChanged bool) bool {
	v := &q.Vars

	if requestChanged || v.Fields != "" {
		return false
	}
	if q.deps.ExternalObjectCache {
		return true
	}

	return v.PostsPerPage > 0 && v.PostsPerPage < config.SplitQueryThreshold && q.Clauses.Limits != ""
}

func (q *Query) restoreCached(ctx context.Context, cached cachedQuery) error {
	q.PostIDs = cached.PostIDs
	q.FoundPosts = cached.FoundPosts
	q.MaxNumPages = cached.MaxNumPages

	switch q.Vars.Fields {
	case "ids":
		q.PostCount = len(cached.PostIDs)
		return nil
	case "id=>parent":
		q.IDParents = cached.IDParents
		q.PostCount = len(cached.IDParents)
		return nil
	}

	posts, err := q.deps.Storage.Posts().GetByIDs(ctx, cached.PostIDs)
	if err != nil {
		return errors.Wrap(err, "error while hydrating cached query")
	}
	q.Posts = posts
	q.PostCount = len(posts)

	return nil
}

func (q *Query) storeCached(key string) {
	if key == "" {
		return
	}

	q.deps.Cache.Set(key, cachedQuery{
		PostIDs:     q.PostIDs,
		IDParents:   q.IDParents,
		FoundPosts:  q.FoundPosts,
		MaxNumPages: q.MaxNumPages,
	}, config.CacheDomainPostQueries)
}

// setFoundRows computes the full result size. An unlimited query already has
// it; a limited one runs the companion count unless told not to.
func (q *Query) setFoundRows(ctx context.Context, resultCount int) error {
	v := &q.Vars

	if q.Clauses.Limits == "" {
		q.FoundPosts = int64(resultCount)
		q.MaxNumPages = 1
		return nil
	}
	if v.NoFoundRows {
		return nil
	}

	countExpr := "COUNT(*)"
	if q.Clauses.GroupBy != "" || q.Clauses.Distinct != "" {
		countExpr = "COUNT(DISTINCT " + storage.PostsTable + ".id)"
	}
	countSQL := "SELECT " + countExpr + " FROM " + storage.PostsTable + q.Clauses.Join +
		" WHERE 1=1" + q.Clauses.Where

	found, err := q.deps.Storage.Executor().ScalarInt(ctx, countSQL)
	if err != nil {
		return errors.Wrap(err, "error while counting found rows")
	}

	q.FoundPosts = found
	if v.PostsPerPage > 0 {
		q.MaxNumPages = (found + int64(v.PostsPerPage) - 1) / int64(v.PostsPerPage)
	}

	return nil
}

func commentColumnsSQL() string {
	t := storage.CommentsTable
	cols := []string{
		"comment_id", "comment_post_id", "comment_author",
		"comment_content", "comment_date", "comment_date_gmt", "comment_approved",
	}
	for i, col := range cols {
		cols[i] = t + "." + col
	}

	return strings.Join(cols, ", ")
}

func (q *Query) fetchComments(ctx context.Context, sql string) ([]models.Comment, error) {
	key := "comment_feed:" + md5hex(sql) + ":" + q.deps.Cache.LastChanged(config.CacheDomainComments)
	if hit, ok := q.deps.Cache.Get(key, config.CacheDomainComments); ok {
		if comments, ok := hit.([]models.Comment); ok {
			return comments, nil
		}
	}

	comments, err := q.deps.Storage.Executor().CommentRows(ctx, sql)
	if err != nil {
		return nil, errors.Wrap(err, "error while fetching feed comments")
	}
	q.deps.Cache.Set(key, comments, config.CacheDomainComments)

	return comments, nil
}

// rewriteForCommentFeed runs the comment query ahead of the post query,
// joining the assembled post predicates, then replaces the post WHERE with
// the ids the comments reference. No comments means an empty feed.
func (q *Query) rewriteForCommentFeed(ctx context.Context) error {
	t := storage.PostsTable
	ct := storage.CommentsTable

	sql := fmt.Sprintf(
		"SELECT %s FROM %s JOIN %s ON %s.id = %s.comment_post_id%s WHERE 1=1%s AND %s.comment_approved = '1' ORDER BY %s.comment_date_gmt DESC LIMIT %d",
		commentColumnsSQL(), ct, t, t, ct, q.Clauses.Join, q.Clauses.Where,
		ct, ct, q.deps.Site.PostsPerRSS(),
	)

	comments, err := q.fetchComments(ctx, sql)
	if err != nil {
		return err
	}
	q.Comments = comments

	seen := make(map[int64]bool, len(comments))
	var ids []int64
	for _, c := range comments {
		if !seen[c.CommentPostID] {
			seen[c.CommentPostID] = true
			ids = append(ids, c.CommentPostID)
		}
	}

	q.Clauses.Join = ""
	q.Clauses.GroupBy = ""
	if len(ids) > 0 {
		q.Clauses.Where = fmt.Sprintf(" AND %s.id IN (%s)", t, storage.JoinIDs(ids))
	} else {
		q.Clauses.Where = " AND 1=0"
	}

	return nil
}

// loadCommentFeed serves the singular case: the row is already resolved, so
// the newest approved comments on it are fetched after the fact.
func (q *Query) loadCommentFeed(ctx context.Context) error {
	if len(q.PostIDs) == 0 {
		return nil
	}

	t := storage.CommentsTable
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s.comment_approved = '1' AND %s.comment_post_id IN (%s) ORDER BY %s.comment_date_gmt DESC LIMIT %d",
		commentColumnsSQL(), t, t, t, storage.JoinIDs(q.PostIDs), t, q.deps.Site.PostsPerRSS(),
	)

	comments, err := q.fetchComments(ctx, sql)
	if err != nil {
		return err
	}
	q.Comments = comments

	return nil
}

func postIDs(posts []models.Post) []int64 {
	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	return ids
}
