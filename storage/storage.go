package storage

import (
	"context"

	"ucode/ucode_content_query_service/models"
)

// Table names of the content schema.
const (
	PostsTable            = "posts"
	PostMetaTable         = "postmeta"
	TermsTable            = "terms"
	TermTaxonomyTable     = "term_taxonomy"
	TermRelationshipsTable = "term_relationships"
	CommentsTable         = "comments"
)

// PostColumns is the full projection, in scan order. Keep in sync with the
// posts migration.
var PostColumns = []string{
	"id",
	"post_author",
	"post_date",
	"post_date_gmt",
	"post_content",
	"post_title",
	"post_excerpt",
	"post_status",
	"comment_status",
	"ping_status",
	"post_password",
	"post_name",
	"post_modified",
	"post_modified_gmt",
	"post_parent",
	"guid",
	"menu_order",
	"post_type",
	"post_mime_type",
	"comment_count",
}

// PostColumnsSQL renders the full projection with a table prefix.
func PostColumnsSQL(table string) string {
	out := ""
	for i, col := range PostColumns {
		if i > 0 {
			out += ", "
		}
		out += table + "." + col
	}

	return out
}

type StorageI interface {
	Executor() ExecutorI
	Posts() PostsRepoI
}

// ExecutorI runs finished SQL text produced by the query engine. The engine
// owns SQL composition; the executor owns connections and row scanning.
// Execution failure is the one hard error path of the whole core.
type ExecutorI interface {
	// PostRows runs a full-projection select.
	PostRows(ctx context.Context, sql string) ([]models.Post, error)
	// IDColumn runs an ID-only select.
	IDColumn(ctx context.Context, sql string) ([]int64, error)
	// IDParentRows runs the id=>parent projection.
	IDParentRows(ctx context.Context, sql string) ([]models.IDParent, error)
	// CommentRows runs a comment-store select.
	CommentRows(ctx context.Context, sql string) ([]models.Comment, error)
	// ScalarInt runs a single-value select (found-rows companion).
	ScalarInt(ctx context.Context, sql string) (int64, error)
}

// PostsRepoI covers the targeted lookups the engine needs besides the main
// assembled statement: hydration by ID, slug-path resolution and secondary
// cache feeding.
type PostsRepoI interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Post, error)
	// GetByPath resolves a hierarchical slug path ("parent/child") against
	// the given post types, most specific match first. Returns nil on miss.
	GetByPath(ctx context.Context, path string, postTypes []string) (*models.Post, error)
	// GetByName resolves a flat slug for one post type. Returns nil on miss.
	GetByName(ctx context.Context, name, postType string) (*models.Post, error)
	// MetaForPosts bulk-loads meta rows for cache priming.
	MetaForPosts(ctx context.Context, ids []int64) (map[int64]map[string][]string, error)
	// TermsForPosts bulk-loads term relationships for cache priming.
	TermsForPosts(ctx context.Context, ids []int64) (map[int64][]models.Term, error)
	// AuthorByID resolves an author record, nil on miss.
	AuthorByID(ctx context.Context, id int64) (*models.Author, error)
	// AuthorBySlug resolves an author by nice name, nil on miss.
	AuthorBySlug(ctx context.Context, slug string) (*models.Author, error)
}
