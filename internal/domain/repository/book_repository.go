package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookstack/internal/common"
	"bookstack/internal/domain/model"
)

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id string) (*model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.BookFilter, limit, offset int) ([]model.Book, int, error)
}

type pgBookRepository struct {
	db *sql.DB
}

func NewPgBookRepository(db *sql.DB) BookRepository {
	return &pgBookRepository{db: db}
}

func (r *pgBookRepository) Create(ctx context.Context, b *model.Book) error {
	query := `INSERT INTO books (id, title, author, description, published_year, category, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.Title, b.Author, b.Description, b.PublishedYear, b.Category, b.CreatedByID,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Create: %w", err)
	}
	return nil
}

func (r *pgBookRepository) FindByID(ctx context.Context, id string) (*model.Book, error) {
	query := `SELECT id, title, author, description, published_year, category, created_by, created_at, updated_at
	          FROM books WHERE id = $1`
	book := &model.Book{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID, &book.Title, &book.Author, &book.Description, &book.PublishedYear,
		&book.Category, &book.CreatedByID, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBookRepository.FindByID: %w", err)
	}
	return book, nil
}

func (r *pgBookRepository) Update(ctx context.Context, b *model.Book) error {
	query := `UPDATE books SET
	            title = $1, author = $2, description = $3, published_year = $4, category = $5,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		b.Title, b.Author, b.Description, b.PublishedYear, b.Category, b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgBookRepository.Update: %w", err)
	}
	return nil
}

func (r *pgBookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgBookRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgBookRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List executes the filter conjunction with a count and a windowed fetch.
// Results are newest-first with id as the deterministic tie-break.
func (r *pgBookRepository) List(ctx context.Context, filter model.BookFilter, limit, offset int) ([]model.Book, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argID))
		args = append(args, "%"+escapeLike(filter.Title)+"%")
		argID++
	}
	if filter.Author != "" {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argID))
		args = append(args, "%"+escapeLike(filter.Author)+"%")
		argID++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("published_year = $%d", argID))
		args = append(args, *filter.Year)
		argID++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM books" + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List count: %w", err)
	}

	query := `SELECT id, title, author, description, published_year, category, created_by, created_at, updated_at
	          FROM books` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List query: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.PublishedYear,
			&b.Category, &b.CreatedByID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgBookRepository.List scan: %w", err)
		}
		books = append(books, b)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgBookRepository.List rows.Err: %w", err)
	}

	return books, total, nil
}

// escapeLike neutralizes LIKE metacharacters so user input only ever matches
// as a literal substring.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
