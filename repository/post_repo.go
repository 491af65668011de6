package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkblog/models"
)

const postColumns = `id,author_id,title,description,tags,thumbnail,created_at`

type PostRepo struct {
	DB *pgxpool.Pool
}

func NewPostRepo(db *pgxpool.Pool) *PostRepo { return &PostRepo{DB: db} }

// CreateWithLogTx inserts the post and its activity log entry in one
// transaction.
func (r *PostRepo) CreateWithLogTx(ctx context.Context, p models.NewPost) (*models.Post, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op once committed

	if p.Tags == nil {
		p.Tags = []string{}
	}
	var id int
	err = tx.QueryRow(ctx,
		`INSERT INTO posts(author_id, title, description, tags, thumbnail) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		p.AuthorID, p.Title, p.Desc, p.Tags, p.Thumbnail,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO activity_logs(action, post_id, user_id) VALUES ($1,$2,$3)`,
		"new_post", id, p.AuthorID,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *PostRepo) GetByID(ctx context.Context, id int) (*models.Post, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns the newest posts first.
func (r *PostRepo) List(ctx context.Context, limit int) ([]models.Post, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

// ListByAuthor returns one author's posts, newest first.
func (r *PostRepo) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE author_id=$1 ORDER BY id DESC`, authorID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepo) SearchByTag(ctx context.Context, tag string) ([]models.Post, error) {
	// tags @> ARRAY[tag]::text[] uses the GIN index on the TEXT[] column
	rows, err := r.DB.Query(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE tags @> ARRAY[$1]::text[]
		 ORDER BY id DESC`, tag)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func collectPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()
	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Desc, &p.Tags, &p.Thumbnail, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
