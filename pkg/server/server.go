package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/wildbranch/wbl-catalog/pkg/authenticator"
	"github.com/wildbranch/wbl-catalog/pkg/authz"
	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/openlibrary"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server/middleware"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	gormstore "github.com/wildbranch/wbl-catalog/pkg/server/store/gorm"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

type Server struct {
	Router *mux.Router
	DB     *gorm.DB
	Config *config.CatalogConfig

	UsersStore     store.UsersStore
	BooksStore     store.BooksStore
	LibrariesStore store.LibrariesStore
	HealthStore    store.HealthStore

	Hasher        *password.Hasher
	Codec         *token.Codec
	Authenticator *authenticator.Authenticator
	Resolver      *authenticator.Resolver
	Authorizer    *authz.Authorizer
	BookLookup    openlibrary.Lookup
	Bearer        *middleware.Bearer

	srv *http.Server
}

// NewServer wires the catalog components around db. cfg must already be
// validated.
func NewServer(
	cfg *config.CatalogConfig,
	db *gorm.DB,
	host string,
	port string,
) (*Server, error) {
	codec, err := token.NewCodec(token.Config{
		Secret:    []byte(cfg.SigningKey),
		Algorithm: cfg.SigningAlgorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}

	users := gormstore.NewUsersStore(db)
	hasher := password.NewHasher(cfg.PasswordHashCost)
	resolver := authenticator.NewResolver(codec, users)

	router := mux.NewRouter()
	s := &Server{
		Router:         router,
		DB:             db,
		Config:         cfg,
		UsersStore:     users,
		BooksStore:     gormstore.NewBooksStore(db),
		LibrariesStore: gormstore.NewLibrariesStore(db),
		HealthStore:    gormstore.NewHealthStore(db),
		Hasher:         hasher,
		Codec:          codec,
		Authenticator:  authenticator.New(users, hasher),
		Resolver:       resolver,
		Authorizer:     authz.New(),
		BookLookup:     openlibrary.NewClient(cfg.OpenLibraryURL),
		Bearer:         middleware.NewBearer(resolver),
	}

	s.srv = &http.Server{
		Handler: s.Handler(),
		Addr:    net.JoinHostPort(host, port),
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return s, nil
}

// Handler returns the router wrapped with panic recovery, CORS and access
// logging
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	if s.Config != nil && len(s.Config.CORSAllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.Config.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
			handlers.AllowCredentials(),
		)(h)
	}
	return handlers.LoggingHandler(os.Stdout, h)
}

// Start listens on the configured address
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// StartWithListener serves on an existing listener
func (s *Server) StartWithListener(l net.Listener) error {
	return s.srv.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
