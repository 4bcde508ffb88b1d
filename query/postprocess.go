package query

import (
	"context"

	"ucode/ucode_content_query_service/config"
	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// postProcess runs the row-level passes over the fetched result: external
// result transforms, the singular visibility check, sticky promotion and
// secondary cache priming.
func (q *Query) postProcess(ctx context.Context) ([]models.Post, error) {
	v := &q.Vars

	if v.Fields != "" {
		// ID projections carry no rows to filter.
		return nil, nil
	}

	posts := q.Posts

	if !v.SuppressFilters {
		posts = q.deps.Hooks.runResults(posts, q)
	}

	if q.IsSingular && len(posts) > 0 {
		post, err := q.checkSingularAccess(ctx, posts[0])
		if err != nil {
			return nil, err
		}
		if post == nil {
			posts = nil
		} else {
			posts = []models.Post{*post}
			q.queriedObject = &models.QueriedObject{Kind: models.QueriedPost, Post: post}
			q.queriedObjectID = post.ID
		}
	}

	if err := q.applyStickies(ctx, &posts); err != nil {
		return nil, err
	}

	if !v.SuppressFilters {
		posts = q.deps.Hooks.runThePosts(posts, q)
	}

	q.Posts = posts
	q.PostIDs = postIDs(posts)
	q.PostCount = len(posts)

	q.primeCaches(ctx)

	return posts, nil
}

// checkSingularAccess decides whether the current viewer may see the single
// resolved row. Returns nil when they may not; the caller empties the
// result, it never hard-fails.
func (q *Query) checkSingularAccess(ctx context.Context, row models.Post) (*models.Post, error) {
	user := q.deps.CurrentUser
	post := row
	caps := q.capsFor([]string{post.PostType})

	status := post.PostStatus
	if status == "inherit" {
		// Attachments inherit their parent's status; orphans read as
		// published.
		status = "publish"
		if post.PostParent > 0 {
			parent, err := q.deps.Storage.Posts().GetByID(ctx, post.PostParent)
			if err != nil {
				return nil, errors.Wrap(err, "error while resolving inherited status")
			}
			if parent != nil {
				status = parent.PostStatus
			}
		}
	}

	st, known := q.deps.Registry.PostStatus(status)

	canEdit := user != nil &&
		((user.ID == post.PostAuthor && user.Can(caps.EditPosts)) || user.Can(caps.EditOthersPosts))

	visible := false
	switch {
	case status == "publish" || (known && st.Public):
		visible = true
	case !known:
		// An unregistered status is assumed non-public and needs edit
		// rights.
		visible = canEdit
	case st.Protected:
		visible = canEdit
		if visible {
			// A granted protected row renders as a preview of itself.
			q.IsPreview = true
		}
	case st.Private:
		visible = user != nil &&
			(user.ID == post.PostAuthor || user.Can(caps.ReadPrivatePosts))
	}
	if !visible {
		return nil, nil
	}

	if q.IsPreview {
		// A previewed draft renders as if published right now. Scheduled
		// rows keep their future date.
		if post.PostStatus != "future" {
			post.PostDate = q.deps.Site.Now()
		}

		return q.deps.Hooks.runThePreview(&post, q), nil
	}

	return &post, nil
}

// applyStickies promotes sticky posts to the front of the first home page,
// fetching any that the page itself missed. Relative order within each group
// is preserved.
func (q *Query) applyStickies(ctx context.Context, posts *[]models.Post) error {
	v := &q.Vars
	stickies := q.deps.Site.StickyPosts()

	if !q.IsHome || v.Paged > 1 || v.IgnoreStickyPosts || len(stickies) == 0 {
		return nil
	}

	isSticky := make(map[int64]bool, len(stickies))
	for _, id := range stickies {
		isSticky[id] = true
	}

	var front, rest []models.Post
	have := make(map[int64]bool, len(*posts))
	for _, p := range *posts {
		have[p.ID] = true
		if isSticky[p.ID] {
			front = append(front, p)
		} else {
			rest = append(rest, p)
		}
	}

	excluded := make(map[int64]bool, len(v.PostNotIn))
	for _, id := range v.PostNotIn {
		excluded[id] = true
	}

	var missing []int64
	for _, id := range stickies {
		if !have[id] && !excluded[id] {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		fetched, err := q.deps.Storage.Posts().GetByIDs(ctx, missing)
		if err != nil {
			return errors.Wrap(err, "error while fetching sticky posts")
		}
		for _, p := range fetched {
			if p.PostStatus == "publish" {
				front = append(front, p)
			}
		}
	}

	if len(front) > 0 {
		*posts = append(front, rest...)
	}

	return nil
}

// primeCaches feeds the secondary caches so per-post lookups that follow the
// query never go back to storage.
func (q *Query) primeCaches(ctx context.Context) {
	v := &q.Vars
	if !v.CacheResults || len(q.PostIDs) == 0 {
		return
	}

	for i := range q.Posts {
		post := q.Posts[i]
		q.deps.Cache.Add(cast.ToString(post.ID), post, config.CacheDomainPosts)
	}

	if v.UpdatePostMetaCache {
		meta, err := q.deps.Storage.Posts().MetaForPosts(ctx, q.PostIDs)
		if err != nil {
			q.logger().Warn("meta cache priming failed", logger.Error(err))
		} else {
			for id, values := range meta {
				q.deps.Cache.Set(cast.ToString(id), values, config.CacheDomainPostMeta)
			}
		}
	}

	if v.UpdatePostTermCache {
		terms, err := q.deps.Storage.Posts().TermsForPosts(ctx, q.PostIDs)
		if err != nil {
			q.logger().Warn("term cache priming failed", logger.Error(err))
		} else {
			for id, list := range terms {
				q.deps.Cache.Set(cast.ToString(id), list, config.CacheDomainTerms)
			}
		}
	}
}
