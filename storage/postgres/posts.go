package postgres

import (
	"context"
	"strings"

	"ucode/ucode_content_query_service/models"
	psqlpool "ucode/ucode_content_query_service/pool"
	"ucode/ucode_content_query_service/storage"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type postsRepo struct {
	db *psqlpool.Pool
}

func NewPostsRepo(db *psqlpool.Pool) storage.PostsRepoI {
	return &postsRepo{db: db}
}

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *postsRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	posts, err := r.GetByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, nil
	}

	return &posts[0], nil
}

func (r *postsRepo) GetByIDs(ctx context.Context, ids []int64) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}

	query, args, err := sb.
		Select(storage.PostColumns...).
		From(storage.PostsTable).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building posts by ids query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while getting posts by ids")
	}
	defer rows.Close()

	byID := make(map[int64]models.Post, len(ids))
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		byID[post.ID] = post
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "posts by ids rows error")
	}

	// Preserve the requested order.
	posts := make([]models.Post, 0, len(byID))
	for _, id := range ids {
		if post, ok := byID[id]; ok {
			posts = append(posts, post)
		}
	}

	return posts, nil
}

// GetByPath resolves a hierarchical slug path by loading every candidate
// row sharing one of the path segments, then walking parents from the leaf.
func (r *postsRepo) GetByPath(ctx context.Context, path string, postTypes []string) (*models.Post, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}

	parts := strings.Split(path, "/")

	query, args, err := sb.
		Select("id", "post_name", "post_parent", "post_type").
		From(storage.PostsTable).
		Where(squirrel.Eq{"post_name": parts, "post_type": postTypes}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building path query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while resolving post path")
	}
	defer rows.Close()

	type pathRow struct {
		id       int64
		name     string
		parent   int64
		postType string
	}

	candidates := make([]pathRow, 0)
	for rows.Next() {
		var row pathRow
		if err := rows.Scan(&row.id, &row.name, &row.parent, &row.postType); err != nil {
			return nil, errors.Wrap(err, "error while scanning path row")
		}
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "path rows error")
	}

	byID := make(map[int64]pathRow, len(candidates))
	for _, c := range candidates {
		byID[c.id] = c
	}

	leaf := parts[len(parts)-1]
	for _, typ := range postTypes {
		for _, c := range candidates {
			if c.name != leaf || c.postType != typ {
				continue
			}

			// Rebuild the candidate's full path by walking parents and
			// require it to equal the requested one.
			segs := []string{c.name}
			cur := c
			for cur.parent != 0 {
				parent, ok := byID[cur.parent]
				if !ok {
					segs = nil
					break
				}
				segs = append([]string{parent.name}, segs...)
				cur = parent
			}
			if segs != nil && strings.Join(segs, "/") == path {
				return r.GetByID(ctx, c.id)
			}
		}
	}

	return nil, nil
}

func (r *postsRepo) GetByName(ctx context.Context, name, postType string) (*models.Post, error) {
	query, args, err := sb.
		Select(storage.PostColumns...).
		From(storage.PostsTable).
		Where(squirrel.Eq{"post_name": name, "post_type": postType}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building post by name query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while getting post by name")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	post, err := scanPost(rows)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postsRepo) MetaForPosts(ctx context.Context, ids []int64) (map[int64]map[string][]string, error) {
	out := make(map[int64]map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sb.
		Select("post_id", "meta_key", "meta_value").
		From(storage.PostMetaTable).
		Where(squirrel.Eq{"post_id": ids}).
		OrderBy("meta_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building meta query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while getting post meta")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID     int64
			key, value string
		)
		if err := rows.Scan(&postID, &key, &value); err != nil {
			return nil, errors.Wrap(err, "error while scanning meta row")
		}

		if out[postID] == nil {
			out[postID] = make(map[string][]string)
		}
		out[postID][key] = append(out[postID][key], value)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "meta rows error")
	}

	return out, nil
}

func (r *postsRepo) TermsForPosts(ctx context.Context, ids []int64) (map[int64][]models.Term, error) {
	out := make(map[int64][]models.Term, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sb.
		Select("tr.object_id", "t.id", "t.name", "t.slug", "tt.taxonomy").
		From(storage.TermRelationshipsTable+" tr").
		Join(storage.TermTaxonomyTable+" tt ON tt.id = tr.term_taxonomy_id").
		Join(storage.TermsTable+" t ON t.id = tt.term_id").
		Where(squirrel.Eq{"tr.object_id": ids}).
		OrderBy("tr.object_id", "t.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building terms query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error while getting post terms")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			objectID int64
			term     models.Term
		)
		if err := rows.Scan(&objectID, &term.TermID, &term.Name, &term.Slug, &term.Taxonomy); err != nil {
			return nil, errors.Wrap(err, "error while scanning term row")
		}
		out[objectID] = append(out[objectID], term)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "term rows error")
	}

	return out, nil
}

func (r *postsRepo) AuthorByID(ctx context.Context, id int64) (*models.Author, error) {
	return r.author(ctx, squirrel.Eq{"id": id})
}

func (r *postsRepo) AuthorBySlug(ctx context.Context, slug string) (*models.Author, error) {
	return r.author(ctx, squirrel.Eq{"nice_name": slug})
}

func (r *postsRepo) author(ctx context.Context, cond squirrel.Eq) (*models.Author, error) {
	query, args, err := sb.
		Select("id", "login", "nice_name", "display_name").
		From("authors").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error while building author query")
	}

	var author models.Author

	err = r.db.QueryRow(ctx, query, args...).Scan(
		&author.ID,
		&author.Login,
		&author.NiceName,
		&author.DisplayName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "error while getting author")
	}

	return &author, nil
}
