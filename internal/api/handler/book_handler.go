package handler

import (
	"encoding/json"
	"net/http"

	"bookstack/internal/api/middleware"
	"bookstack/internal/app/service"
	"bookstack/internal/common"

	"github.com/go-chi/chi/v5"
)

type BookHandler struct {
	bookService *service.BookService
}

func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Get("/", h.listBooks)
	})

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.Authenticator)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createBook)
		adminRouter.Put("/{bookID}", h.updateBook)
		adminRouter.Delete("/{bookID}", h.deleteBook)
	})
}

func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := service.ListBooksRequest{
		Title:    query.Get("title"),
		Author:   query.Get("author"),
		Year:     query.Get("year"),
		Category: query.Get("category"),
		Page:     query.Get("page"),
		Limit:    query.Get("limit"),
	}

	page, err := h.bookService.ListBooks(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *BookHandler) createBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	book, err := h.bookService.CreateBook(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	var req service.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	book, err := h.bookService.UpdateBook(r.Context(), bookID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if err := h.bookService.DeleteBook(r.Context(), bookID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}
