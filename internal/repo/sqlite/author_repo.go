package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/diagnosis/party-hub/internal/domain"
)

const queryTimeout = 3 * time.Second

type AuthorRepo interface {
	Create(ctx context.Context, a *domain.Author) error
	FindBySecret(ctx context.Context, secret string) (*domain.Author, error)
	FindByID(ctx context.Context, id string) (*domain.Author, error)
	List(ctx context.Context) ([]domain.Author, error)
}

type AuthorRepoImpl struct{ db *sqlx.DB }

func NewAuthorRepo(db *sqlx.DB) *AuthorRepoImpl { return &AuthorRepoImpl{db: db} }

func (r *AuthorRepoImpl) Create(ctx context.Context, a *domain.Author) error {
	const q = `INSERT INTO authors (id, name, author_secret) VALUES (:id, :name, :author_secret)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.NamedExecContext(ctx, q, a)
	return err
}

func (r *AuthorRepoImpl) FindBySecret(ctx context.Context, secret string) (*domain.Author, error) {
	if secret == "" {
		return nil, nil
	}
	const q = `SELECT id, name, author_secret FROM authors WHERE author_secret = ?`
	return r.get(ctx, q, secret)
}

func (r *AuthorRepoImpl) FindByID(ctx context.Context, id string) (*domain.Author, error) {
	const q = `SELECT id, name, author_secret FROM authors WHERE id = ?`
	return r.get(ctx, q, id)
}

func (r *AuthorRepoImpl) get(ctx context.Context, q string, arg any) (*domain.Author, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var a domain.Author
	err := r.db.GetContext(ctx, &a, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuthorRepoImpl) List(ctx context.Context) ([]domain.Author, error) {
	const q = `SELECT id, name, author_secret FROM authors ORDER BY name`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out := []domain.Author{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}
