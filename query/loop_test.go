package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopSignals(t *testing.T) {
	var starts, ends int
	hooks := &Hooks{
		LoopStart: []func(*Query){func(*Query) { starts++ }},
		LoopEnd:   []func(*Query){func(*Query) { ends++ }},
	}

	store := newFakeStore(makePosts(3)...)
	q := New(Deps{Storage: store, Hooks: hooks, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.True(t, q.BeforeLoop)

	var seen []int64
	for q.HavePosts() {
		pc := q.ThePost(context.Background())
		require.NotNil(t, pc)
		assert.True(t, q.InTheLoop)
		seen = append(seen, pc.Post.ID)
	}

	assert.Equal(t, []int64{1, 2, 3}, seen)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.False(t, q.InTheLoop)
	assert.False(t, q.BeforeLoop)
	assert.Equal(t, -1, q.CurrentPost, "loop end rewinds the cursor")
}

func TestLoopRunsTwiceAfterRewind(t *testing.T) {
	store := newFakeStore(makePosts(2)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	count := 0
	for q.HavePosts() {
		q.ThePost(context.Background())
		count++
	}
	for q.HavePosts() {
		q.ThePost(context.Background())
		count++
	}

	assert.Equal(t, 4, count)
}

func TestLoopNoResults(t *testing.T) {
	fired := 0
	hooks := &Hooks{
		NoResults: []func(*Query){func(*Query) { fired++ }},
	}

	store := newFakeStore()
	q := New(Deps{Storage: store, Hooks: hooks, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{"s": "nothing matches"})
	require.NoError(t, err)

	assert.False(t, q.HavePosts())
	assert.False(t, q.HavePosts())
	assert.False(t, q.HavePosts())
	assert.Equal(t, 1, fired, "the no-results signal is one-shot")
	assert.False(t, q.BeforeLoop)
}

func TestThePostWithoutRowsReturnsNil(t *testing.T) {
	store := newFakeStore()
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	assert.Nil(t, q.ThePost(context.Background()))
}

func TestPostContextDateParts(t *testing.T) {
	store := newFakeStore(makePosts(1)...)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	require.True(t, q.HavePosts())
	pc := q.ThePost(context.Background())

	assert.Equal(t, "05", pc.Month)
	assert.Equal(t, "30", pc.Day)
}

func TestSplitContentPages(t *testing.T) {
	content := "intro\n<!--nextpage-->\nsecond<!--nextpage-->third"

	pages := splitContentPages(content)

	require.Len(t, pages, 3)
	assert.Equal(t, "intro", pages[0])
	assert.Equal(t, "second", pages[1])
	assert.Equal(t, "third", pages[2])
}

func TestPostContextContentPaging(t *testing.T) {
	post := makePosts(1)[0]
	post.PostContent = "one<!--nextpage-->two"
	store := newFakeStore(post)
	q := New(Deps{Storage: store, Site: &StaticSite{PerPage: 10}})

	_, err := q.Run(context.Background(), Request{})
	require.NoError(t, err)

	require.True(t, q.HavePosts())
	pc := q.ThePost(context.Background())

	require.Len(t, pc.Pages, 2)
	assert.Equal(t, 1, pc.Page)
	assert.True(t, pc.More)
	assert.Same(t, pc, q.CurrentPostContext())
}
