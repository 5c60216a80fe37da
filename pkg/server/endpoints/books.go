package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/wildbranch/wbl-catalog/pkg/authz"
	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// BookCreateRequest is the body of POST /api/books
type BookCreateRequest struct {
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	ISBN          *string     `json:"isbn"`
	PublishedDate *model.Date `json:"published_date"`
	Genre         *string     `json:"genre"`
	Description   *string     `json:"description"`
	CoverImage    *string     `json:"cover_image"`
	IsAvailable   *bool       `json:"is_available"`
	LibraryID     uint        `json:"library_id"`
}

// BookUpdateRequest is the body of PUT /api/books/{id}. Absent fields are
// left unchanged.
type BookUpdateRequest struct {
	Title         *string     `json:"title"`
	Author        *string     `json:"author"`
	ISBN          *string     `json:"isbn"`
	PublishedDate *model.Date `json:"published_date"`
	Genre         *string     `json:"genre"`
	Description   *string     `json:"description"`
	CoverImage    *string     `json:"cover_image"`
	IsAvailable   *bool       `json:"is_available"`
	LibraryID     *uint       `json:"library_id"`
}

// RegisterBooksEndpoints registers the book catalog endpoints. Every route
// requires a bearer token.
func RegisterBooksEndpoints(s *server.Server) {
	booksRouter := s.Router.PathPrefix("/api/books").Subrouter()
	booksRouter.Use(s.Bearer.Middleware)

	booksRouter.HandleFunc("", handleListBooks(s.BooksStore, s.Config)).Methods("GET")
	booksRouter.HandleFunc("", handleCreateBook(s.BooksStore, s.LibrariesStore, s.Authorizer)).Methods("POST")
	booksRouter.HandleFunc("/{id:[0-9]+}", handleGetBook(s.BooksStore, s.Authorizer)).Methods("GET")
	booksRouter.HandleFunc("/{id:[0-9]+}", handleUpdateBook(s.BooksStore, s.LibrariesStore, s.Authorizer)).Methods("PUT")
	booksRouter.HandleFunc("/{id:[0-9]+}", handleDeleteBook(s.BooksStore, s.Authorizer)).Methods("DELETE")
}

func handleListBooks(books store.BooksStore, cfg *config.CatalogConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requester(r)

		skip, err := queryInt(r, "skip")
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if cfg != nil {
			limit = cfg.ClampLimit(limit)
		}

		list, err := books.ListBooks(store.BookFilter{
			OwnerID: user.ID,
			Search:  strings.TrimSpace(r.URL.Query().Get("search")),
			Offset:  skip,
			Limit:   limit,
		})
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if list == nil {
			list = []model.Book{}
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

func handleGetBook(books store.BooksStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, clientIP := requester(r)
		id, ok := pathID(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, detailBookNotFound)
			return
		}

		book, err := books.FetchBook(id)
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if err := authorizer.Check(authz.ActionRead, authz.BookTarget(book), user, clientIP); err != nil {
			respondWithStoreError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, book)
	}
}

func handleCreateBook(books store.BooksStore, libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, clientIP := requester(r)

		var req BookCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if err := req.validate(); err != nil {
			respondWithStoreError(w, err)
			return
		}

		if err := checkTargetLibrary(libraries, authorizer, req.LibraryID, user, clientIP); err != nil {
			respondWithLibraryRefError(w, err)
			return
		}

		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		book := &model.Book{
			Title:         req.Title,
			Author:        req.Author,
			ISBN:          blankToNil(req.ISBN),
			PublishedDate: req.PublishedDate,
			Genre:         req.Genre,
			Description:   req.Description,
			CoverImage:    req.CoverImage,
			IsAvailable:   available,
			LibraryID:     req.LibraryID,
			OwnerID:       user.ID,
		}
		if err := books.CreateBook(book); err != nil {
			respondWithLibraryRefError(w, err)
			return
		}

		respondWithJSON(w, http.StatusCreated, book)
	}
}

func handleUpdateBook(books store.BooksStore, libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, clientIP := requester(r)
		id, ok := pathID(r)
		if !ok {
			respondWithError(w, http.StatusNotFound, detailBookNotFound)
			return
		}

		var req BookUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if err := req.validate(); err != nil {
			respondWithStoreError(w, err)
			return
		}

		book, err := books.FetchBook(id)
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if err := authorizer.Check(authz.ActionWrite, authz.BookTarget(book), user, clientIP); err != nil {
			respondWithStoreError(w, err)
			return
		}

		if req.LibraryID != nil && *req.LibraryID != book.LibraryID {
			if err := checkTargetLibrary(libraries, authorizer, *req.LibraryID, user, clientIP); err != nil {
				respondWithLibraryRefError(w, err)
				return
			}
		}

		req.applyTo(book)
		if err := books.UpdateBook(book); err != nil {
			respondWithLibraryRefError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, book)
	}
}

func handleDeleteBook(books store.BooksStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, clientIP := requester(r)
		id, ok := pathID(r)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		book, err := books.FetchBook(id)
		if errors.Is(err, store.ErrBookNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if err := authorizer.Check(authz.ActionDelete, authz.BookTarget(book), user, clientIP); err != nil {
			respondWithStoreError(w, err)
			return
		}

		// a concurrent delete that won the race is still a success
		if err := books.DeleteBook(id); err != nil && !errors.Is(err, store.ErrBookNotFound) {
			respondWithStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// checkTargetLibrary requires the library a book is placed in to exist and
// be writable by the requester.
func checkTargetLibrary(
	libraries store.LibrariesStore,
	authorizer *authz.Authorizer,
	libraryID uint,
	user *model.User,
	clientIP string,
) error {
	library, err := libraries.FetchLibrary(libraryID)
	if err != nil {
		return err
	}
	return authorizer.Check(authz.ActionWrite, authz.LibraryTarget(library), user, clientIP)
}

// respondWithLibraryRefError reports a missing referenced library as a bad
// request rather than a missing resource.
func respondWithLibraryRefError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrLibraryNotFound) {
		respondWithError(w, http.StatusBadRequest, detailLibraryNotFound)
		return
	}
	respondWithStoreError(w, err)
}

func (req *BookCreateRequest) validate() error {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.ISBN = blankToNil(req.ISBN)
	req.Genre = blankToNil(req.Genre)

	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, model.MaxBookTitleLength)),
		validation.Field(&req.Author, validation.Required, validation.RuneLength(1, model.MaxBookAuthorLength)),
		validation.Field(&req.ISBN, validation.RuneLength(0, model.MaxISBNLength)),
		validation.Field(&req.Genre, validation.RuneLength(0, model.MaxGenreLength)),
		validation.Field(&req.LibraryID, validation.Required),
	))
}

func (req *BookUpdateRequest) validate() error {
	trimInPlace(req.Title)
	trimInPlace(req.Author)

	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.RuneLength(1, model.MaxBookTitleLength)),
		validation.Field(&req.Author, validation.NilOrNotEmpty, validation.RuneLength(1, model.MaxBookAuthorLength)),
		validation.Field(&req.ISBN, validation.By(trimmedRuneLength(model.MaxISBNLength))),
		validation.Field(&req.Genre, validation.By(trimmedRuneLength(model.MaxGenreLength))),
		validation.Field(&req.LibraryID, validation.NilOrNotEmpty),
	))
}

func (req *BookUpdateRequest) applyTo(book *model.Book) {
	if req.Title != nil {
		book.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		book.Author = strings.TrimSpace(*req.Author)
	}
	if req.ISBN != nil {
		book.ISBN = blankToNil(req.ISBN)
	}
	if req.PublishedDate != nil {
		book.PublishedDate = req.PublishedDate
	}
	if req.Genre != nil {
		book.Genre = req.Genre
	}
	if req.Description != nil {
		book.Description = req.Description
	}
	if req.CoverImage != nil {
		book.CoverImage = req.CoverImage
	}
	if req.IsAvailable != nil {
		book.IsAvailable = *req.IsAvailable
	}
	if req.LibraryID != nil {
		book.LibraryID = *req.LibraryID
	}
}

// trimInPlace trims the string s points at, if any
func trimInPlace(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// trimmedRuneLength checks an optional string against a column limit after
// the trimming blankToNil will apply
func trimmedRuneLength(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		s, ok := value.(*string)
		if !ok || s == nil {
			return nil
		}
		if utf8.RuneCountInString(strings.TrimSpace(*s)) > limit {
			return fmt.Errorf("the length must be no more than %d", limit)
		}
		return nil
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
