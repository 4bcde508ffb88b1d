package query

import "ucode/ucode_content_query_service/models"

// Hooks are the engine's extension points: ordered lists of transforms
// registered ahead of time and invoked at named checkpoints. All mutation
// happens through the passed references; there is no ambient global state.
//
// Checkpoints fire in pipeline order: ParseQuery after normalization,
// PreGetPosts before predicate assembly, then three rounds over the
// assembled SQL (Clauses before paging, ClausesRequest after paging,
// Request on the final statement text), then the result passes
// (PrePosts short-circuit, Results before visibility filtering, ThePosts
// last). Loop signals fire from the iteration state machine.
type Hooks struct {
	ParseQuery  []func(*Query)
	PreGetPosts []func(*Query)

	Clauses        []func(*models.SQLClauses, *Query)
	ClausesRequest []func(*models.SQLClauses, *Query)
	Request        []func(string, *Query) string

	// PrePosts may short-circuit execution entirely: the first transform
	// returning a non-nil slice becomes the result and storage is never
	// touched.
	PrePosts []func(*Query) []models.Post

	Results  []func([]models.Post, *Query) []models.Post
	ThePosts []func([]models.Post, *Query) []models.Post

	// ThePreview may substitute a different row while in preview mode.
	ThePreview []func(*models.Post, *Query) *models.Post

	LoopStart []func(*Query)
	LoopEnd   []func(*Query)
	NoResults []func(*Query)
}

func (h *Hooks) runParseQuery(q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.ParseQuery {
		fn(q)
	}
}

func (h *Hooks) runPreGetPosts(q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.PreGetPosts {
		fn(q)
	}
}

func (h *Hooks) runClauses(c *models.SQLClauses, q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.Clauses {
		fn(c, q)
	}
}

func (h *Hooks) runClausesRequest(c *models.SQLClauses, q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.ClausesRequest {
		fn(c, q)
	}
}

func (h *Hooks) runRequest(sql string, q *Query) string {
	if h == nil {
		return sql
	}
	for _, fn := range h.Request {
		sql = fn(sql, q)
	}
	return sql
}

func (h *Hooks) runPrePosts(q *Query) []models.Post {
	if h == nil {
		return nil
	}
	for _, fn := range h.PrePosts {
		if posts := fn(q); posts != nil {
			return posts
		}
	}
	return nil
}

func (h *Hooks) runResults(posts []models.Post, q *Query) []models.Post {
	if h == nil {
		return posts
	}
	for _, fn := range h.Results {
		posts = fn(posts, q)
	}
	return posts
}

func (h *Hooks) runThePosts(posts []models.Post, q *Query) []models.Post {
	if h == nil {
		return posts
	}
	for _, fn := range h.ThePosts {
		posts = fn(posts, q)
	}
	return posts
}

func (h *Hooks) runThePreview(post *models.Post, q *Query) *models.Post {
	if h == nil {
		return post
	}
	for _, fn := range h.ThePreview {
		post = fn(post, q)
	}
	return post
}

func (h *Hooks) runLoopStart(q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.LoopStart {
		fn(q)
	}
}

func (h *Hooks) runLoopEnd(q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.LoopEnd {
		fn(q)
	}
}

func (h *Hooks) runNoResults(q *Query) {
	if h == nil {
		return
	}
	for _, fn := range h.NoResults {
		fn(q)
	}
}
