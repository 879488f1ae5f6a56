package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bookstack/internal/common"
	"bookstack/internal/domain/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeBookRepo keeps books in insertion order; List returns newest first,
// matching the Postgres implementation's ordering contract.
type fakeBookRepo struct {
	books []model.Book
	clock time.Time
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeBookRepo) nextTime() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeBookRepo) Create(_ context.Context, book *model.Book) error {
	book.CreatedAt = f.nextTime()
	book.UpdatedAt = book.CreatedAt
	f.books = append(f.books, *book)
	return nil
}

func (f *fakeBookRepo) FindByID(_ context.Context, id string) (*model.Book, error) {
	for _, b := range f.books {
		if b.ID == id {
			copied := b
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeBookRepo) Update(_ context.Context, book *model.Book) error {
	for i, b := range f.books {
		if b.ID == book.ID {
			book.UpdatedAt = f.nextTime()
			updated := *book
			updated.CreatedAt = b.CreatedAt
			f.books[i] = updated
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeBookRepo) Delete(_ context.Context, id string) error {
	for i, b := range f.books {
		if b.ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeBookRepo) List(_ context.Context, filter model.BookFilter, limit, offset int) ([]model.Book, int, error) {
	matched := []model.Book{}
	for i := len(f.books) - 1; i >= 0; i-- { // newest first
		b := f.books[i]
		if filter.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Year != nil && (b.PublishedYear == nil || *b.PublishedYear != *filter.Year) {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		matched = append(matched, b)
	}

	total := len(matched)
	if offset >= total {
		return []model.Book{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func newTestBookService(repo *fakeBookRepo) *BookService {
	return NewBookService(repo, nil, zerolog.Nop())
}

func TestBuildBookQuery_Defaults(t *testing.T) {
	t.Parallel()

	filter, page, limit, err := buildBookQuery(ListBooksRequest{})
	require.NoError(t, err)
	require.Equal(t, model.BookFilter{}, filter)
	require.Equal(t, 1, page)
	require.Equal(t, 5, limit)

	// Non-numeric and non-positive paging falls back to the defaults.
	_, page, limit, err = buildBookQuery(ListBooksRequest{Page: "abc", Limit: "-3"})
	require.NoError(t, err)
	require.Equal(t, 1, page)
	require.Equal(t, 5, limit)

	_, _, limit, err = buildBookQuery(ListBooksRequest{Limit: "10000"})
	require.NoError(t, err)
	require.Equal(t, maxLimit, limit)
}

func TestBuildBookQuery_YearCoercion(t *testing.T) {
	t.Parallel()

	filter, _, _, err := buildBookQuery(ListBooksRequest{Year: "1869"})
	require.NoError(t, err)
	require.NotNil(t, filter.Year)
	require.Equal(t, 1869, *filter.Year)

	// A non-numeric year is rejected, never silently matched against zero.
	_, _, _, err = buildBookQuery(ListBooksRequest{Year: "eighteen69"})
	require.True(t, errors.Is(err, common.ErrValidation), "expected ErrValidation, got %v", err)
}

func TestListBooks_PaginationMath(t *testing.T) {
	t.Parallel()

	repo := newFakeBookRepo()
	svc := newTestBookService(repo)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{
			Title:  fmt.Sprintf("Book %02d", i),
			Author: "Author",
		})
		require.NoError(t, err)
	}

	page, err := svc.ListBooks(ctx, ListBooksRequest{Page: "3", Limit: "5"})
	require.NoError(t, err)
	require.Len(t, page.Books, 2)
	require.Equal(t, 3, page.CurrentPage)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 12, page.TotalBooks)
}

func TestListBooks_EmptyCatalog(t *testing.T) {
	t.Parallel()

	svc := newTestBookService(newFakeBookRepo())

	page, err := svc.ListBooks(context.Background(), ListBooksRequest{})
	require.NoError(t, err)
	require.Empty(t, page.Books)
	require.NotNil(t, page.Books) // serializes as [] not null
	require.Equal(t, 0, page.TotalPages)
	require.Equal(t, 0, page.TotalBooks)
}

func TestListBooks_NewestFirst(t *testing.T) {
	t.Parallel()

	repo := newFakeBookRepo()
	svc := newTestBookService(repo)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "Older", Author: "A"})
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "Newer", Author: "A"})
	require.NoError(t, err)

	page, err := svc.ListBooks(ctx, ListBooksRequest{})
	require.NoError(t, err)
	require.Len(t, page.Books, 2)
	require.Equal(t, "Newer", page.Books[0].Title)
	require.Equal(t, "Older", page.Books[1].Title)
}

func TestListBooks_FilterConjunction(t *testing.T) {
	t.Parallel()

	repo := newFakeBookRepo()
	svc := newTestBookService(repo)
	ctx := context.Background()

	year1869, year1952 := 1869, 1952
	seed := []CreateBookRequest{
		{Title: "War and Peace", Author: "Leo Tolstoy", PublishedYear: &year1869},
		{Title: "The Art of War", Author: "Sun Tzu", PublishedYear: &year1952},
		{Title: "Anna Karenina", Author: "Leo Tolstoy", PublishedYear: &year1869},
	}
	for _, req := range seed {
		_, err := svc.CreateBook(ctx, "admin-1", req)
		require.NoError(t, err)
	}

	// title AND year narrows to the single match
	page, err := svc.ListBooks(ctx, ListBooksRequest{Title: "War", Year: "1869"})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	require.Equal(t, "War and Peace", page.Books[0].Title)

	// absent terms never narrow: title alone matches both "War" books
	page, err = svc.ListBooks(ctx, ListBooksRequest{Title: "war"})
	require.NoError(t, err)
	require.Len(t, page.Books, 2)

	page, err = svc.ListBooks(ctx, ListBooksRequest{Author: "tolstoy"})
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalBooks)
}

func TestCreateBook_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestBookService(newFakeBookRepo())
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{Author: "A"})
	require.True(t, errors.Is(err, common.ErrValidation), "expected ErrValidation, got %v", err)

	_, err = svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "T", Author: "   "})
	require.True(t, errors.Is(err, common.ErrValidation), "expected ErrValidation, got %v", err)
}

func TestCreateBook_DefaultsAndCreator(t *testing.T) {
	t.Parallel()

	svc := newTestBookService(newFakeBookRepo())
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "T", Author: "A"})
	require.NoError(t, err)
	require.Equal(t, model.DefaultCategory, book.Category)
	require.NotNil(t, book.CreatedByID)
	require.Equal(t, "admin-1", *book.CreatedByID)
	require.NotEmpty(t, book.ID)

	history := "History"
	book, err = svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "T2", Author: "A", Category: &history})
	require.NoError(t, err)
	require.Equal(t, "History", book.Category)
}

func TestUpdateBook_PresenceMerge(t *testing.T) {
	t.Parallel()

	repo := newFakeBookRepo()
	svc := newTestBookService(repo)
	ctx := context.Background()

	created, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "T", Author: "A"})
	require.NoError(t, err)

	// Only description provided: title and author keep their values.
	desc := "D"
	updated, err := svc.UpdateBook(ctx, created.ID, UpdateBookRequest{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "T", updated.Title)
	require.Equal(t, "A", updated.Author)
	require.NotNil(t, updated.Description)
	require.Equal(t, "D", *updated.Description)

	// Explicitly empty description clears it.
	empty := ""
	updated, err = svc.UpdateBook(ctx, created.ID, UpdateBookRequest{Description: &empty})
	require.NoError(t, err)
	require.Nil(t, updated.Description)

	// Explicitly empty title is rejected, not treated as "keep".
	_, err = svc.UpdateBook(ctx, created.ID, UpdateBookRequest{Title: &empty})
	require.True(t, errors.Is(err, common.ErrValidation), "expected ErrValidation, got %v", err)

	year := 2024
	updated, err = svc.UpdateBook(ctx, created.ID, UpdateBookRequest{PublishedYear: &year})
	require.NoError(t, err)
	require.NotNil(t, updated.PublishedYear)
	require.Equal(t, 2024, *updated.PublishedYear)
}

func TestUpdateBook_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestBookService(newFakeBookRepo())

	title := "T"
	_, err := svc.UpdateBook(context.Background(), "missing-id", UpdateBookRequest{Title: &title})
	require.True(t, errors.Is(err, common.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestDeleteBook(t *testing.T) {
	t.Parallel()

	repo := newFakeBookRepo()
	svc := newTestBookService(repo)
	ctx := context.Background()

	created, err := svc.CreateBook(ctx, "admin-1", CreateBookRequest{Title: "T", Author: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, created.ID))

	err = svc.DeleteBook(ctx, created.ID)
	require.True(t, errors.Is(err, common.ErrNotFound), "expected ErrNotFound, got %v", err)

	page, err := svc.ListBooks(ctx, ListBooksRequest{})
	require.NoError(t, err)
	require.Empty(t, page.Books)
}
