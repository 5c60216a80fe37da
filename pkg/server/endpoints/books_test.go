package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wildbranch/wbl-catalog/pkg/authz"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/openlibrary"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

func ownedBook() *model.Book {
	return &model.Book{
		ID:          7,
		Title:       "Dune",
		Author:      "Frank Herbert",
		ISBN:        strPtr("9780441013593"),
		IsAvailable: true,
		LibraryID:   3,
		OwnerID:     owner.ID,
	}
}

func ownedLibrary() *model.Library {
	return &model.Library{ID: 3, Name: "Home", UserID: owner.ID}
}

func TestGetBook(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		setup    func(books *MockBooksStore)
		wantCode int
	}{
		{
			name: "owner",
			user: owner,
			setup: func(books *MockBooksStore) {
				books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "superuser",
			user: admin,
			setup: func(books *MockBooksStore) {
				books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "another user is forbidden",
			user: stranger,
			setup: func(books *MockBooksStore) {
				books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "missing book is 404 even for a stranger",
			user: stranger,
			setup: func(books *MockBooksStore) {
				books.On("FetchBook", uint(7)).Return(nil, store.ErrBookNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "storage failure",
			user: owner,
			setup: func(books *MockBooksStore) {
				books.On("FetchBook", uint(7)).Return(nil, errors.New("connection reset"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books := NewMockBooksStore()
			tt.setup(books)

			req := requestWithIdentity("GET", "/api/books/7", nil, tt.user, map[string]string{"id": "7"})
			rec := httptest.NewRecorder()
			handleGetBook(books, authz.New())(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			books.AssertExpectations(t)
		})
	}
}

func TestListBooks(t *testing.T) {
	t.Run("lists only the requester's books with clamped paging", func(t *testing.T) {
		books := NewMockBooksStore()
		cfg := testConfig()
		books.On("ListBooks", store.BookFilter{
			OwnerID: owner.ID,
			Search:  "dune",
			Offset:  5,
			Limit:   cfg.APIListLimitMax,
		}).Return([]model.Book{*ownedBook()}, nil)

		req := requestWithIdentity("GET", "/api/books?skip=5&limit=999999&search=+dune+", nil, owner, nil)
		rec := httptest.NewRecorder()
		handleListBooks(books, cfg)(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got []model.Book
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 1)
		books.AssertExpectations(t)
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("ListBooks", mock.Anything).Return(nil, nil)

		req := requestWithIdentity("GET", "/api/books", nil, owner, nil)
		rec := httptest.NewRecorder()
		handleListBooks(books, testConfig())(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("negative skip", func(t *testing.T) {
		books := NewMockBooksStore()

		req := requestWithIdentity("GET", "/api/books?skip=-1", nil, owner, nil)
		rec := httptest.NewRecorder()
		handleListBooks(books, testConfig())(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		books.AssertNotCalled(t, "ListBooks", mock.Anything)
	})
}

func TestCreateBook(t *testing.T) {
	body := BookCreateRequest{Title: "Dune", Author: "Frank Herbert", ISBN: strPtr(" "), LibraryID: 3}

	t.Run("owner is the requester", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		libraries.On("FetchLibrary", uint(3)).Return(ownedLibrary(), nil)
		books.On("CreateBook", mock.MatchedBy(func(b *model.Book) bool {
			return b.OwnerID == owner.ID && b.IsAvailable && b.ISBN == nil
		})).Return(nil)

		req := requestWithIdentity("POST", "/api/books", body, owner, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		books.AssertExpectations(t)
	})

	t.Run("missing library", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		libraries.On("FetchLibrary", uint(3)).Return(nil, store.ErrLibraryNotFound)

		req := requestWithIdentity("POST", "/api/books", body, owner, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Library not found", decodeDetail(t, rec))
		books.AssertNotCalled(t, "CreateBook", mock.Anything)
	})

	t.Run("someone else's library", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		libraries.On("FetchLibrary", uint(3)).Return(ownedLibrary(), nil)

		req := requestWithIdentity("POST", "/api/books", body, stranger, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		books.AssertNotCalled(t, "CreateBook", mock.Anything)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		libraries.On("FetchLibrary", uint(3)).Return(ownedLibrary(), nil)
		books.On("CreateBook", mock.Anything).Return(store.ErrDuplicateISBN)

		req := requestWithIdentity("POST", "/api/books", body, owner, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "A book with this ISBN already exists", decodeDetail(t, rec))
	})

	t.Run("title is required", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()

		req := requestWithIdentity("POST", "/api/books", BookCreateRequest{Author: "x", LibraryID: 3}, owner, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "title: cannot be blank.", decodeDetail(t, rec))
	})
}

func TestCreateBook_ColumnLimits(t *testing.T) {
	tests := []struct {
		name string
		body BookCreateRequest
	}{
		{name: "title too long", body: BookCreateRequest{Title: strings.Repeat("t", 300), Author: "x", LibraryID: 3}},
		{name: "author too long", body: BookCreateRequest{Title: "Dune", Author: strings.Repeat("a", 256), LibraryID: 3}},
		{name: "isbn too long", body: BookCreateRequest{Title: "Dune", Author: "x", ISBN: strPtr(strings.Repeat("9", 40)), LibraryID: 3}},
		{name: "genre too long", body: BookCreateRequest{Title: "Dune", Author: "x", Genre: strPtr(strings.Repeat("g", 101)), LibraryID: 3}},
		{name: "missing library", body: BookCreateRequest{Title: "Dune", Author: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books := NewMockBooksStore()
			libraries := NewMockLibrariesStore()

			req := requestWithIdentity("POST", "/api/books", tt.body, owner, nil)
			rec := httptest.NewRecorder()
			handleCreateBook(books, libraries, authz.New())(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			books.AssertNotCalled(t, "CreateBook", mock.Anything)
			libraries.AssertNotCalled(t, "FetchLibrary", mock.Anything)
		})
	}

	t.Run("multibyte title at the limit", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		libraries.On("FetchLibrary", uint(3)).Return(ownedLibrary(), nil)
		books.On("CreateBook", mock.Anything).Return(nil)

		body := BookCreateRequest{Title: strings.Repeat("é", 255), Author: "x", LibraryID: 3}
		req := requestWithIdentity("POST", "/api/books", body, owner, nil)
		rec := httptest.NewRecorder()
		handleCreateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestUpdateBook_Validation(t *testing.T) {
	var zero uint
	tests := []struct {
		name string
		body BookUpdateRequest
	}{
		{name: "title too long", body: BookUpdateRequest{Title: strPtr(strings.Repeat("t", 300))}},
		{name: "blank title", body: BookUpdateRequest{Title: strPtr("   ")}},
		{name: "blank author", body: BookUpdateRequest{Author: strPtr("")}},
		{name: "isbn too long", body: BookUpdateRequest{ISBN: strPtr(strings.Repeat("9", 40))}},
		{name: "zero library", body: BookUpdateRequest{LibraryID: &zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books := NewMockBooksStore()
			libraries := NewMockLibrariesStore()

			req := requestWithIdentity("PUT", "/api/books/7", tt.body, owner, map[string]string{"id": "7"})
			rec := httptest.NewRecorder()
			handleUpdateBook(books, libraries, authz.New())(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			books.AssertNotCalled(t, "FetchBook", mock.Anything)
			books.AssertNotCalled(t, "UpdateBook", mock.Anything)
		})
	}
}

func TestUpdateBook(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
		books.On("UpdateBook", mock.MatchedBy(func(b *model.Book) bool {
			return b.Title == "Dune Messiah" && b.Author == "Frank Herbert" && b.OwnerID == owner.ID
		})).Return(nil)

		req := requestWithIdentity("PUT", "/api/books/7", BookUpdateRequest{Title: strPtr("Dune Messiah")}, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleUpdateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		books.AssertExpectations(t)
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)

		req := requestWithIdentity("PUT", "/api/books/7", BookUpdateRequest{Title: strPtr("Mine now")}, stranger, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleUpdateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		books.AssertNotCalled(t, "UpdateBook", mock.Anything)
	})

	t.Run("moving into a missing library", func(t *testing.T) {
		books := NewMockBooksStore()
		libraries := NewMockLibrariesStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
		libraries.On("FetchLibrary", uint(99)).Return(nil, store.ErrLibraryNotFound)

		target := uint(99)
		req := requestWithIdentity("PUT", "/api/books/7", BookUpdateRequest{LibraryID: &target}, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleUpdateBook(books, libraries, authz.New())(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing book", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("FetchBook", uint(7)).Return(nil, store.ErrBookNotFound)

		req := requestWithIdentity("PUT", "/api/books/7", BookUpdateRequest{Title: strPtr("x")}, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleUpdateBook(books, NewMockLibrariesStore(), authz.New())(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteBook(t *testing.T) {
	t.Run("owner deletes", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
		books.On("DeleteBook", uint(7)).Return(nil)

		req := requestWithIdentity("DELETE", "/api/books/7", nil, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleDeleteBook(books, authz.New())(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		books.AssertExpectations(t)
	})

	t.Run("already gone", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("FetchBook", uint(7)).Return(nil, store.ErrBookNotFound)

		req := requestWithIdentity("DELETE", "/api/books/7", nil, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleDeleteBook(books, authz.New())(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		books.AssertNotCalled(t, "DeleteBook", mock.Anything)
	})

	t.Run("lost a concurrent delete", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)
		books.On("DeleteBook", uint(7)).Return(store.ErrBookNotFound)

		req := requestWithIdentity("DELETE", "/api/books/7", nil, owner, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleDeleteBook(books, authz.New())(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("stranger", func(t *testing.T) {
		books := NewMockBooksStore()
		books.On("FetchBook", uint(7)).Return(ownedBook(), nil)

		req := requestWithIdentity("DELETE", "/api/books/7", nil, stranger, map[string]string{"id": "7"})
		rec := httptest.NewRecorder()
		handleDeleteBook(books, authz.New())(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		books.AssertNotCalled(t, "DeleteBook", mock.Anything)
	})
}

func TestBooksRoutes(t *testing.T) {
	t.Run("another user's token is forbidden", func(t *testing.T) {
		ts := newTestServer(t)
		ts.books.On("FetchBook", uint(7)).Return(ownedBook(), nil)

		rec := ts.do("GET", "/api/books/7", ts.bearerFor(t, stranger), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Not enough permissions", decodeDetail(t, rec))
	})

	t.Run("expired token for an active user", func(t *testing.T) {
		ts := newTestServer(t)
		past, err := token.NewCodec(token.Config{
			Secret: []byte(testSigningKey),
			Now:    func() time.Time { return time.Now().Add(-2 * time.Hour) },
		})
		require.NoError(t, err)
		tok, err := past.Issue(owner.Email, time.Hour)
		require.NoError(t, err)
		ts.users.On("FindUserByEmail", owner.Email).Return(owner, nil)

		rec := ts.do("GET", "/api/books", "Bearer "+tok, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Could not validate credentials", decodeDetail(t, rec))
		ts.books.AssertNotCalled(t, "ListBooks", mock.Anything)
	})

	t.Run("deactivated user is rejected before the handler", func(t *testing.T) {
		ts := newTestServer(t)
		inactive := *owner
		inactive.IsActive = false

		rec := ts.do("GET", "/api/books", ts.bearerFor(t, &inactive), nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		ts.books.AssertNotCalled(t, "ListBooks", mock.Anything)
	})

	t.Run("details route is public", func(t *testing.T) {
		ts := newTestServer(t)
		ts.lookup.On("Lookup", "9780441013593").Return(&openlibrary.Details{ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert"}, nil)

		rec := ts.do("GET", "/api/books/details/9780441013593", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
