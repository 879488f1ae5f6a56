package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"bookstack/internal/common"
	"bookstack/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var bookColumns = []string{
	"id", "title", "author", "description", "published_year",
	"category", "created_by", "created_at", "updated_at",
}

func TestBookRepository_List_FilterConjunction(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM books WHERE title ILIKE $1 AND published_year = $2`)).
		WithArgs("%War%", 1869).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`)).
		WithArgs("%War%", 1869, 5, 0).
		WillReturnRows(sqlmock.NewRows(bookColumns).
			AddRow("b1", "War and Peace", "Leo Tolstoy", nil, 1869, "Fiction", "admin-1", now, now))

	year := 1869
	books, total, err := repo.List(context.Background(), model.BookFilter{Title: "War", Year: &year}, 5, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, books, 1)
	require.Equal(t, "War and Peace", books[0].Title)
	require.Nil(t, books[0].Description)
	require.NotNil(t, books[0].PublishedYear)
	require.Equal(t, 1869, *books[0].PublishedYear)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_List_NoFilter(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM books`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $1 OFFSET $2`)).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(bookColumns))

	books, total, err := repo.List(context.Background(), model.BookFilter{}, 5, 10)
	require.NoError(t, err)
	require.Equal(t, 0, total)
	require.Empty(t, books)
	require.NoError(t, mock.ExpectationsWereMet())
}

// LIKE metacharacters in filter input must match literally, not as wildcards.
func TestBookRepository_List_EscapesLikeInput(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM books WHERE title ILIKE $1`)).
		WithArgs(`%100\% Legit\_Title%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3`)).
		WithArgs(`%100\% Legit\_Title%`, 5, 0).
		WillReturnRows(sqlmock.NewRows(bookColumns))

	_, _, err := repo.List(context.Background(), model.BookFilter{Title: `100% Legit_Title`}, 5, 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	now := time.Now()
	creator := "admin-1"
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO books`)).
		WithArgs("b1", "T", "A", nil, nil, "Fiction", &creator).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	book := &model.Book{ID: "b1", Title: "T", Author: "A", Category: "Fiction", CreatedByID: &creator}
	err := repo.Create(context.Background(), book)
	require.NoError(t, err)
	require.Equal(t, now, book.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Update_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE books SET`)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &model.Book{ID: "missing", Title: "T", Author: "A", Category: "Fiction"})
	require.True(t, errors.Is(err, common.ErrNotFound), "expected ErrNotFound, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Delete(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPgBookRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "b1"))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE id = $1`)).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "gone")
	require.True(t, errors.Is(err, common.ErrNotFound), "expected ErrNotFound, got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}
