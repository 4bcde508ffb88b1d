package query

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"
)

// fakeExecutor serves a fixed corpus, honoring only the LIMIT/OFFSET tail of
// the statement. Predicate correctness is asserted on the SQL text itself.
type fakeExecutor struct {
	corpus   []models.Post
	comments []models.Comment

	calls   int
	lastSQL string
}

var limitRe = regexp.MustCompile(`LIMIT (\d+) OFFSET (\d+)`)

func (f *fakeExecutor) window(sql string) []models.Post {
	m := limitRe.FindStringSubmatch(sql)
	if m == nil {
		return f.corpus
	}

	limit, _ := strconv.Atoi(m[1])
	offset, _ := strconv.Atoi(m[2])
	if offset >= len(f.corpus) {
		return nil
	}
	end := offset + limit
	if end > len(f.corpus) {
		end = len(f.corpus)
	}

	return f.corpus[offset:end]
}

func (f *fakeExecutor) PostRows(_ context.Context, sql string) ([]models.Post, error) {
	f.calls++
	f.lastSQL = sql

	return append([]models.Post{}, f.window(sql)...), nil
}

func (f *fakeExecutor) IDColumn(_ context.Context, sql string) ([]int64, error) {
	f.calls++
	f.lastSQL = sql

	rows := f.window(sql)
	ids := make([]int64, len(rows))
	for i, p := range rows {
		ids[i] = p.ID
	}

	return ids, nil
}

func (f *fakeExecutor) IDParentRows(_ context.Context, sql string) ([]models.IDParent, error) {
	f.calls++
	f.lastSQL = sql

	rows := f.window(sql)
	pairs := make([]models.IDParent, len(rows))
	for i, p := range rows {
		pairs[i] = models.IDParent{ID: p.ID, PostParent: p.PostParent}
	}

	return pairs, nil
}

func (f *fakeExecutor) CommentRows(_ context.Context, sql string) ([]models.Comment, error) {
	f.calls++
	f.lastSQL = sql

	return f.comments, nil
}

func (f *fakeExecutor) ScalarInt(_ context.Context, sql string) (int64, error) {
	f.calls++

	return int64(len(f.corpus)), nil
}

type fakePosts struct {
	byID    map[int64]models.Post
	byPath  map[string]models.Post
	authors map[int64]models.Author
}

func (f *fakePosts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	if p, ok := f.byID[id]; ok {
		return &p, nil
	}

	return nil, nil
}

func (f *fakePosts) GetByIDs(_ context.Context, ids []int64) ([]models.Post, error) {
	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}

	return out, nil
}

func (f *fakePosts) GetByPath(_ context.Context, path string, _ []string) (*models.Post, error) {
	if p, ok := f.byPath[path]; ok {
		return &p, nil
	}

	return nil, nil
}

func (f *fakePosts) GetByName(_ context.Context, name, postType string) (*models.Post, error) {
	for _, p := range f.byID {
		if p.PostName == name && p.PostType == postType {
			post := p
			return &post, nil
		}
	}

	return nil, nil
}

func (f *fakePosts) MetaForPosts(_ context.Context, _ []int64) (map[int64]map[string][]string, error) {
	return map[int64]map[string][]string{}, nil
}

func (f *fakePosts) TermsForPosts(_ context.Context, _ []int64) (map[int64][]models.Term, error) {
	return map[int64][]models.Term{}, nil
}

func (f *fakePosts) AuthorByID(_ context.Context, id int64) (*models.Author, error) {
	if a, ok := f.authors[id]; ok {
		return &a, nil
	}

	return nil, nil
}

func (f *fakePosts) AuthorBySlug(_ context.Context, slug string) (*models.Author, error) {
	for _, a := range f.authors {
		if a.NiceName == slug {
			author := a
			return &author, nil
		}
	}

	return nil, nil
}

type fakeStore struct {
	exec  *fakeExecutor
	posts *fakePosts
}

func (s *fakeStore) Executor() storage.ExecutorI { return s.exec }
func (s *fakeStore) Posts() storage.PostsRepoI   { return s.posts }

func newFakeStore(corpus ...models.Post) *fakeStore {
	byID := make(map[int64]models.Post, len(corpus))
	for _, p := range corpus {
		byID[p.ID] = p
	}

	return &fakeStore{
		exec: &fakeExecutor{corpus: corpus},
		posts: &fakePosts{
			byID:    byID,
			byPath:  map[string]models.Post{},
			authors: map[int64]models.Author{},
		},
	}
}

// makePosts builds n published posts with ids 1..n, newest first.
func makePosts(n int) []models.Post {
	posts := make([]models.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, models.Post{
			ID:         int64(i),
			PostDate:   fmt.Sprintf("2024-05-%02d 09:00:00", 31-i),
			PostTitle:  fmt.Sprintf("post %d", i),
			PostName:   fmt.Sprintf("post-%d", i),
			PostStatus: "publish",
			PostType:   "post",
		})
	}

	return posts
}

func containsAll(sql string, fragments ...string) bool {
	for _, frag := range fragments {
		if !strings.Contains(sql, frag) {
			return false
		}
	}

	return true
}
