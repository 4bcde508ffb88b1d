package query

import (
	"context"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/pkg/logger"
)

const pageBreakMarker = "<!--nextpage-->"

// PostContext is the rendering context set up for the current loop row.
type PostContext struct {
	Post   models.Post
	Author *models.Author

	// Day and Month are the date parts templates key on for date-change
	// detection between rows.
	Day   string
	Month string

	// Pages is the content split at page break markers. Page is the 1-based
	// page selected by the request; More reports content past it.
	Pages []string
	Page  int
	More  bool
}

// HavePosts reports whether the loop has a next row. Crossing the end fires
// the loop-end signal exactly once and rewinds the cursor; an empty result
// fires the no-results signal instead.
func (q *Query) HavePosts() bool {
	switch {
	case q.CurrentPost+1 < q.PostCount:
		return true
	case q.CurrentPost+1 == q.PostCount && q.PostCount > 0:
		q.deps.Hooks.runLoopEnd(q)
		q.Rewind()
	case q.PostCount == 0:
		// One-shot, like the loop-end signal on the other branch.
		if q.BeforeLoop {
			q.BeforeLoop = false
			q.deps.Hooks.runNoResults(q)
		}
	}

	q.InTheLoop = false

	return false
}

// ThePost advances the cursor and builds the rendering context for the new
// current row. The first advance fires the loop-start signal. Calling it
// without a preceding true HavePosts is a caller bug; it returns nil rather
// than panic.
func (q *Query) ThePost(ctx context.Context) *PostContext {
	if q.CurrentPost+1 >= q.PostCount {
		return nil
	}

	q.BeforeLoop = false
	if q.CurrentPost == -1 {
		q.deps.Hooks.runLoopStart(q)
	}
	q.InTheLoop = true
	q.CurrentPost++

	q.current = q.buildPostContext(ctx, q.Posts[q.CurrentPost])

	return q.current
}

// CurrentPostContext returns the context of the current row, nil outside the
// loop.
func (q *Query) CurrentPostContext() *PostContext {
	return q.current
}

// Rewind resets the cursor so the loop can run again over the same result.
func (q *Query) Rewind() {
	q.CurrentPost = -1
	q.current = nil
}

func (q *Query) buildPostContext(ctx context.Context, post models.Post) *PostContext {
	pc := &PostContext{Post: post}

	if len(post.PostDate) >= 10 {
		pc.Month = post.PostDate[5:7]
		pc.Day = post.PostDate[8:10]
	}

	pc.Pages = splitContentPages(post.PostContent)
	pc.Page = q.Vars.Page
	if pc.Page < 1 {
		pc.Page = 1
	}
	if pc.Page > len(pc.Pages) {
		pc.Page = len(pc.Pages)
	}
	pc.More = pc.Page < len(pc.Pages)

	if post.PostAuthor > 0 {
		author, err := q.deps.Storage.Posts().AuthorByID(ctx, post.PostAuthor)
		if err != nil {
			q.logger().Warn("author lookup failed", logger.Int64("author", post.PostAuthor), logger.Error(err))
		} else {
			pc.Author = author
		}
	}

	return pc
}

// splitContentPages breaks content at page break markers, tolerating the
// newline and block-wrapper variants the editor emits around them.
func splitContentPages(content string) []string {
	if !strings.Contains(content, pageBreakMarker) {
		return []string{content}
	}

	content = strings.ReplaceAll(content, "\n"+pageBreakMarker+"\n", pageBreakMarker)
	content = strings.ReplaceAll(content, "\n"+pageBreakMarker, pageBreakMarker)
	content = strings.ReplaceAll(content, pageBreakMarker+"\n", pageBreakMarker)
	content = strings.ReplaceAll(content, "<!-- wp:nextpage -->", "")
	content = strings.ReplaceAll(content, "<!-- /wp:nextpage -->", "")

	return strings.Split(content, pageBreakMarker)
}
