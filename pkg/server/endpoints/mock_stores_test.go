package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/openlibrary"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// MockUsersStore implements store.UsersStore for testing using testify/mock
type MockUsersStore struct {
	mock.Mock
}

func NewMockUsersStore() *MockUsersStore {
	return &MockUsersStore{}
}

func (m *MockUsersStore) FindUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) CreateUser(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUsersStore) UpdatePasswordHash(email string, hash string) error {
	return m.Called(email, hash).Error(0)
}

// MockBooksStore implements store.BooksStore for testing using testify/mock
type MockBooksStore struct {
	mock.Mock
}

func NewMockBooksStore() *MockBooksStore {
	return &MockBooksStore{}
}

func (m *MockBooksStore) ListBooks(filter store.BookFilter) ([]model.Book, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *MockBooksStore) FetchBook(id uint) (*model.Book, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBooksStore) CreateBook(book *model.Book) error {
	return m.Called(book).Error(0)
}

func (m *MockBooksStore) UpdateBook(book *model.Book) error {
	return m.Called(book).Error(0)
}

func (m *MockBooksStore) DeleteBook(id uint) error {
	return m.Called(id).Error(0)
}

// MockLibrariesStore implements store.LibrariesStore for testing using testify/mock
type MockLibrariesStore struct {
	mock.Mock
}

func NewMockLibrariesStore() *MockLibrariesStore {
	return &MockLibrariesStore{}
}

func (m *MockLibrariesStore) ListLibraries(ownerID uint) ([]model.Library, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Library), args.Error(1)
}

func (m *MockLibrariesStore) ListAllLibraries() ([]model.Library, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Library), args.Error(1)
}

func (m *MockLibrariesStore) FetchLibrary(id uint) (*model.Library, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Library), args.Error(1)
}

func (m *MockLibrariesStore) CreateLibrary(library *model.Library) error {
	return m.Called(library).Error(0)
}

func (m *MockLibrariesStore) UpdateLibrary(library *model.Library) error {
	return m.Called(library).Error(0)
}

func (m *MockLibrariesStore) DeleteLibrary(id uint) error {
	return m.Called(id).Error(0)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func NewMockHealthStore() *MockHealthStore {
	return &MockHealthStore{}
}

func (m *MockHealthStore) CheckConnectivity() error {
	return m.Called().Error(0)
}

// MockBookLookup implements openlibrary.Lookup for testing using testify/mock
type MockBookLookup struct {
	mock.Mock
}

func (m *MockBookLookup) Lookup(ctx context.Context, isbn string) (*openlibrary.Details, error) {
	args := m.Called(isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openlibrary.Details), args.Error(1)
}

var (
	_ store.UsersStore     = (*MockUsersStore)(nil)
	_ store.BooksStore     = (*MockBooksStore)(nil)
	_ store.LibrariesStore = (*MockLibrariesStore)(nil)
	_ store.HealthStore    = (*MockHealthStore)(nil)
	_ openlibrary.Lookup   = (*MockBookLookup)(nil)
)
