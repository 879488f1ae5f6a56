package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bookstack/internal/common"
	"bookstack/internal/domain/model"
	"bookstack/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPage  = 1
	defaultLimit = 5
	maxLimit     = 100
)

type BookService struct {
	bookRepo repository.BookRepository
	cache    *BookListCache // nil disables caching
	logger   zerolog.Logger
}

func NewBookService(bookRepo repository.BookRepository, cache *BookListCache, logger zerolog.Logger) *BookService {
	return &BookService{bookRepo: bookRepo, cache: cache, logger: logger}
}

// ListBooksRequest carries the raw, untrusted query parameters.
type ListBooksRequest struct {
	Title    string
	Author   string
	Year     string
	Category string
	Page     string
	Limit    string
}

type CreateBookRequest struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Description   *string `json:"description"`
	PublishedYear *int    `json:"publishedYear"`
	Category      *string `json:"category"`
}

// UpdateBookRequest uses pointers so an absent field and an explicitly
// provided one are distinguishable; merging is by key presence.
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Description   *string `json:"description"`
	PublishedYear *int    `json:"publishedYear"`
	Category      *string `json:"category"`
}

// BookPage is the envelope returned by the list endpoint.
type BookPage struct {
	Books       []model.Book `json:"books"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	TotalBooks  int          `json:"totalBooks"`
}

// buildBookQuery coerces raw parameters into a filter and a pagination
// window. Absent terms are dropped rather than matched against zero values.
// A non-numeric year is rejected instead of silently matching nothing.
func buildBookQuery(req ListBooksRequest) (model.BookFilter, int, int, error) {
	filter := model.BookFilter{
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		Category: strings.TrimSpace(req.Category),
	}

	if y := strings.TrimSpace(req.Year); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return model.BookFilter{}, 0, 0, fmt.Errorf("year must be an integer: %w", common.ErrValidation)
		}
		filter.Year = &year
	}

	page, _ := strconv.Atoi(req.Page)
	if page <= 0 {
		page = defaultPage
	}
	limit, _ := strconv.Atoi(req.Limit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return filter, page, limit, nil
}

func (s *BookService) ListBooks(ctx context.Context, req ListBooksRequest) (*BookPage, error) {
	filter, page, limit, err := buildBookQuery(req)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, filter, page, limit); ok {
		return cached, nil
	}

	offset := (page - 1) * limit
	books, total, err := s.bookRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	result := &BookPage{
		Books:       books,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit, // 0 when total is 0
		TotalBooks:  total,
	}

	if err := s.cache.Set(ctx, filter, page, limit, result); err != nil {
		s.logger.Debug().Err(err).Msg("book list cache set failed")
	}
	return result, nil
}

func (s *BookService) CreateBook(ctx context.Context, creatorID string, req CreateBookRequest) (*model.Book, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return nil, fmt.Errorf("title and author are required: %w", common.ErrValidation)
	}

	category := model.DefaultCategory
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		category = *req.Category
	}

	book := &model.Book{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		PublishedYear: req.PublishedYear,
		Category:      category,
		CreatedByID:   &creatorID,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	s.invalidateCache(ctx)
	return book, nil
}

// UpdateBook merges only the fields the caller actually sent. Title, author
// and category cannot be blanked; an explicitly empty description clears it.
func (s *BookService) UpdateBook(ctx context.Context, id string, req UpdateBookRequest) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("title must not be empty: %w", common.ErrValidation)
		}
		book.Title = *req.Title
	}
	if req.Author != nil {
		if strings.TrimSpace(*req.Author) == "" {
			return nil, fmt.Errorf("author must not be empty: %w", common.ErrValidation)
		}
		book.Author = *req.Author
	}
	if req.Category != nil {
		if strings.TrimSpace(*req.Category) == "" {
			return nil, fmt.Errorf("category must not be empty: %w", common.ErrValidation)
		}
		book.Category = *req.Category
	}
	if req.Description != nil {
		if *req.Description == "" {
			book.Description = nil
		} else {
			book.Description = req.Description
		}
	}
	if req.PublishedYear != nil {
		book.PublishedYear = req.PublishedYear
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	s.invalidateCache(ctx)
	return book, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *BookService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("book list cache invalidation failed")
	}
}
