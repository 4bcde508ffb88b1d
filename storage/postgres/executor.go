package postgres

import (
	"context"

	"ucode/ucode_content_query_service/models"
	psqlpool "ucode/ucode_content_query_service/pool"
	"ucode/ucode_content_query_service/storage"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type executor struct {
	db *psqlpool.Pool
}

func NewExecutor(db *psqlpool.Pool) storage.ExecutorI {
	return &executor{db: db}
}

func (e *executor) PostRows(ctx context.Context, sql string) ([]models.Post, error) {
	rows, err := e.db.Query(ctx, storage.RemovePlaceholderEscape(sql))
	if err != nil {
		return nil, errors.Wrap(err, "error while executing posts query")
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "posts rows error")
	}

	return posts, nil
}

func (e *executor) IDColumn(ctx context.Context, sql string) ([]int64, error) {
	rows, err := e.db.Query(ctx, storage.RemovePlaceholderEscape(sql))
	if err != nil {
		return nil, errors.Wrap(err, "error while executing id query")
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "error while scanning id")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "id rows error")
	}

	return ids, nil
}

func (e *executor) IDParentRows(ctx context.Context, sql string) ([]models.IDParent, error) {
	rows, err := e.db.Query(ctx, storage.RemovePlaceholderEscape(sql))
	if err != nil {
		return nil, errors.Wrap(err, "error while executing id-parent query")
	}
	defer rows.Close()

	pairs := make([]models.IDParent, 0)
	for rows.Next() {
		var pair models.IDParent
		if err := rows.Scan(&pair.ID, &pair.PostParent); err != nil {
			return nil, errors.Wrap(err, "error while scanning id-parent")
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "id-parent rows error")
	}

	return pairs, nil
}

func (e *executor) CommentRows(ctx context.Context, sql string) ([]models.Comment, error) {
	rows, err := e.db.Query(ctx, storage.RemovePlaceholderEscape(sql))
	if err != nil {
		return nil, errors.Wrap(err, "error while executing comments query")
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		err = rows.Scan(
			&c.CommentID,
			&c.CommentPostID,
			&c.CommentAuthor,
			&c.CommentContent,
			&c.CommentDate,
			&c.CommentDateGmt,
			&c.CommentApproved,
		)
		if err != nil {
			return nil, errors.Wrap(err, "error while scanning comment")
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "comment rows error")
	}

	return comments, nil
}

func (e *executor) ScalarInt(ctx context.Context, sql string) (int64, error) {
	var val int64

	err := e.db.QueryRow(ctx, storage.RemovePlaceholderEscape(sql)).Scan(&val)
	if err != nil {
		return 0, errors.Wrap(err, "error while executing scalar query")
	}

	return val, nil
}

func scanPost(rows pgx.Rows) (models.Post, error) {
	var post models.Post

	err := rows.Scan(
		&post.ID,
		&post.PostAuthor,
		&post.PostDate,
		&post.PostDateGmt,
		&post.PostContent,
		&post.PostTitle,
		&post.PostExcerpt,
		&post.PostStatus,
		&post.CommentStatus,
		&post.PingStatus,
		&post.PostPassword,
		&post.PostName,
		&post.PostModified,
		&post.PostModifiedGmt,
		&post.PostParent,
		&post.Guid,
		&post.MenuOrder,
		&post.PostType,
		&post.PostMimeType,
		&post.CommentCount,
	)
	if err != nil {
		return post, errors.Wrap(err, "error while scanning post")
	}

	return post, nil
}
