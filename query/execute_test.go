package query

import (
	"context"
	"testing"

	"ucode/ucode_content_query_service/cache"
	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPagination(t *testing.T) {
	store := newFakeStore(makePosts(12)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	posts, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Len(t, posts, 10)
	assert.Equal(t, 10, q.PostCount)
	assert.Equal(t, int64(12), q.FoundPosts)
	assert.Equal(t, int64(2), q.MaxNumPages)
}

func TestRunSecondPage(t *testing.T) {
	store := newFakeStore(makePosts(12)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	posts, err := q.Run(context.Background(), Request{"paged": 2})
	require.NoError(t, err)

	assert.Len(t, posts, 2)
	assert.Contains(t, q.SQL, "LIMIT 10 OFFSET 10")
	assert.True(t, q.IsPaged)
}

func TestRunMissingAttachment(t *testing.T) {
	store := newFakeStore()
	q := New(Deps{Storage: store})

	posts, err := q.Run(context.Background(), Request{"attachment_id": 7})
	require.NoError(t, err)

	assert.Empty(t, posts)
	assert.Equal(t, 0, q.PostCount)
	assert.Equal(t, int64(0), q.FoundPosts)
	assert.True(t, q.IsAttachment)
	assert.Contains(t, q.SQL, "posts.id = 7")
}

func TestRunFieldsIDs(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	posts, err := q.Run(context.Background(), Request{"fields": "ids"})
	require.NoError(t, err)

	assert.Nil(t, posts)
	assert.Equal(t, []int64{1, 2, 3}, q.PostIDs)
	assert.Equal(t, 3, q.PostCount)
	assert.Contains(t, q.SQL, "SELECT posts.id FROM posts")
}

func TestRunFieldsIDParent(t *testing.T) {
	corpus := makePosts(2)
	corpus[1].PostParent = 1
	store := newFakeStore(corpus...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	posts, err := q.Run(context.Background(), Request{"fields": "id=>parent"})
	require.NoError(t, err)

	assert.Nil(t, posts)
	require.Len(t, q.IDParents, 2)
	assert.Equal(t, int64(1), q.IDParents[1].PostParent)
}

func TestRunPlanCacheHit(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	deps := Deps{Storage: store, Cache: cache.NewMemory(64), Site: &StaticSite{PerPage: 10}}

	first := New(deps)
	_, err := first.Run(context.Background(), Request{})
	require.NoError(t, err)

	executed := store.exec.calls
	assert.Greater(t, executed, 0)

	second := New(deps)
	posts, err := second.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, executed, store.exec.calls, "cache hit must not touch the executor")
	assert.Len(t, posts, 5)
	assert.Equal(t, int64(5), second.FoundPosts)
}

func TestRunCacheDisabled(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	deps := Deps{Storage: store, Cache: cache.NewMemory(64), Site: &StaticSite{PerPage: 10}}

	first := New(deps)
	_, err := first.Run(context.Background(), Request{"cache_results": false})
	require.NoError(t, err)
	executed := store.exec.calls

	second := New(deps)
	_, err = second.Run(context.Background(), Request{"cache_results": false})
	require.NoError(t, err)

	assert.Greater(t, store.exec.calls, executed)
}

func TestRunNoFoundRows(t *testing.T) {
	store := newFakeStore(makePosts(12)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{"no_found_rows": true})
	require.NoError(t, err)

	assert.Equal(t, int64(0), q.FoundPosts)
	assert.Equal(t, int64(0), q.MaxNumPages)
}

func TestRunStickyPromotion(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10, Stickies: []int64{4}}})

	posts, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	require.Len(t, posts, 5)
	assert.Equal(t, int64(4), posts[0].ID)
	// Non-sticky order is untouched.
	assert.Equal(t, int64(1), posts[1].ID)
}

func TestRunStickyFetchedWhenMissing(t *testing.T) {
	corpus := makePosts(12)
	store := newFakeStore(corpus...)
	// Post 12 falls off the first page of 10 but is sticky.
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10, Stickies: []int64{12}}})

	posts, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	require.NotEmpty(t, posts)
	assert.Equal(t, int64(12), posts[0].ID)
}

func TestRunIgnoreSticky(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10, Stickies: []int64{4}}})

	posts, err := q.Run(context.Background(), Request{"ignore_sticky_posts": true})
	require.NoError(t, err)

	assert.Equal(t, int64(1), posts[0].ID)
}

func TestRunPrePostsShortCircuit(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	hooks := &Hooks{
		PrePosts: []func(*Query) []models.Post{
			func(*Query) []models.Post {
				return []models.Post{{ID: 99, PostStatus: "publish", PostType: "post"}}
			},
		},
	}
	q := New(Deps{Storage: store, Hooks: hooks, Site: &StaticSite{PerPage: 10}})

	posts, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, 0, store.exec.calls, "short-circuit must not touch storage")
	require.Len(t, posts, 1)
	assert.Equal(t, int64(99), posts[0].ID)
}

func TestRunPostsPageListsPosts(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	site := &StaticSite{FrontMode: "page", FrontPageID: 2, PostsPageID: 5, PerPage: 10}
	q := New(Deps{Storage: store, Site: site})

	_, err := q.Run(context.Background(), Request{"page_id": 5})
	require.NoError(t, err)

	assert.True(t, q.IsHome)
	assert.True(t, q.IsPostsPage)
	assert.Contains(t, q.SQL, "post_type IN ('post')")
	assert.NotContains(t, q.SQL, "posts.id = 5")
}

func TestRunCommentFeedDrivesPostQuery(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	store.exec.comments = []models.Comment{
		{CommentID: 1, CommentPostID: 42, CommentApproved: "1"},
		{CommentID: 2, CommentPostID: 42, CommentApproved: "1"},
		{CommentID: 3, CommentPostID: 7, CommentApproved: "1"},
	}
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10, PerRSS: 10}})

	_, err := q.Run(context.Background(), Request{"feed": "rss2", "withcomments": true})
	require.NoError(t, err)

	assert.True(t, q.IsCommentFeed)
	require.Len(t, q.Comments, 3)
	assert.Contains(t, q.SQL, "posts.id IN (42,7)")
}

func TestRunCommentFeedWithoutComments(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10, PerRSS: 10}})

	_, err := q.Run(context.Background(), Request{"feed": "rss2", "withcomments": true})
	require.NoError(t, err)

	assert.Empty(t, q.Comments)
	assert.Contains(t, q.SQL, "1=0")
}

func TestRunCustomProjectionSkipsPlanCache(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	hooks := &Hooks{
		Clauses: []func(*models.SQLClauses, *Query){
			func(c *models.SQLClauses, _ *Query) { c.Fields = "posts.id, posts.post_title" },
		},
	}
	deps := Deps{Storage: store, Cache: cache.NewMemory(64), Hooks: hooks, Site: &StaticSite{PerPage: 10}}

	first := New(deps)
	_, err := first.Run(context.Background(), Request{})
	require.NoError(t, err)
	executed := store.exec.calls

	second := New(deps)
	_, err = second.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Greater(t, store.exec.calls, executed, "a rewritten projection must not be served from cache")
}

func TestRunPlanCacheHitReprimesOnMutation(t *testing.T) {
	store := newFakeStore(makePosts(5)...)
	hooks := &Hooks{
		ThePosts: []func([]models.Post, *Query) []models.Post{
			func(posts []models.Post, _ *Query) []models.Post {
				var out []models.Post
				for _, p := range posts {
					if p.ID != 2 {
						out = append(out, p)
					}
				}
				return out
			},
		},
	}
	deps := Deps{Storage: store, Cache: cache.NewMemory(64), Hooks: hooks, Site: &StaticSite{PerPage: 10}}

	first := New(deps)
	_, err := first.Run(context.Background(), Request{})
	require.NoError(t, err)

	second := New(deps)
	posts, err := second.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, posts, 4)

	hit, ok := deps.Cache.Get(second.cacheKey(second.SQL), config.CacheDomainPostQueries)
	require.True(t, ok)
	cached, ok := hit.(cachedQuery)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 3, 4, 5}, cached.PostIDs)
}

func TestRunSearchSQL(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{"s": "pillow -sofa"})
	require.NoError(t, err)

	assert.True(t, containsAll(q.SQL,
		"post_title ILIKE",
		"NOT ILIKE",
		"post_password = ''",
	), q.SQL)
}

func TestRunSuppressFiltersSkipsHooks(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	fired := false
	hooks := &Hooks{
		PreGetPosts: []func(*Query){func(*Query) { fired = true }},
	}
	q := New(Deps{Storage: store, Hooks: hooks, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{"suppress_filters": true})
	require.NoError(t, err)

	assert.False(t, fired)
}

func TestRunHookMutationRefreshesDerived(t *testing.T) {
	store := newFakeStore(makePosts(3)...)
	hooks := &Hooks{
		PreGetPosts: []func(*Query){func(q *Query) { q.Vars.S = "mutated term" }},
	}
	q := New(Deps{Storage: store, Hooks: hooks, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, []string{"mutated", "term"}, q.Vars.SearchTerms)
	assert.Contains(t, q.SQL, "ILIKE")
}

func TestSingularVisibility(t *testing.T) {
	private := models.Post{ID: 8, PostAuthor: 2, PostStatus: "private", PostType: "post", PostName: "secret"}
	store := newFakeStore(private)

	anon := New(Deps{Storage: store})
	posts, err := anon.Run(context.Background(), Request{"p": 8})
	require.NoError(t, err)
	assert.Empty(t, posts)

	owner := New(Deps{Storage: store, CurrentUser: &models.User{ID: 2}})
	posts, err = owner.Run(context.Background(), Request{"p": 8})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(8), posts[0].ID)
}

func TestPreviewStampsDate(t *testing.T) {
	draft := models.Post{ID: 3, PostAuthor: 2, PostStatus: "draft", PostType: "post", PostDate: "2020-01-01 00:00:00"}
	store := newFakeStore(draft)

	user := &models.User{ID: 2, Caps: map[string]bool{"edit_posts": true}}
	q := New(Deps{Storage: store, CurrentUser: user})

	posts, err := q.Run(context.Background(), Request{"p": 3, "preview": true})
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.NotEqual(t, "2020-01-01 00:00:00", posts[0].PostDate)
}

func TestProtectedDraftMarksPreview(t *testing.T) {
	draft := models.Post{ID: 3, PostAuthor: 2, PostStatus: "draft", PostType: "post", PostDate: "2020-01-01 00:00:00"}
	store := newFakeStore(draft)

	user := &models.User{ID: 2, Caps: map[string]bool{"edit_posts": true}}
	q := New(Deps{Storage: store, CurrentUser: user})

	posts, err := q.Run(context.Background(), Request{"p": 3})
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.True(t, q.IsPreview, "a granted protected row renders as a preview")
	assert.NotEqual(t, "2020-01-01 00:00:00", posts[0].PostDate)
}

func TestUnknownStatusRequiresEditCap(t *testing.T) {
	row := models.Post{ID: 9, PostAuthor: 2, PostStatus: "imported", PostType: "post"}
	store := newFakeStore(row)

	anon := New(Deps{Storage: store})
	posts, err := anon.Run(context.Background(), Request{"p": 9})
	require.NoError(t, err)
	assert.Empty(t, posts)

	editor := New(Deps{Storage: store, CurrentUser: &models.User{ID: 5, Caps: map[string]bool{"edit_others_posts": true}}})
	posts, err = editor.Run(context.Background(), Request{"p": 9})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(9), posts[0].ID)
}
