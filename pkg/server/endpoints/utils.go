package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wildbranch/wbl-catalog/pkg/authz"
	"github.com/wildbranch/wbl-catalog/pkg/identity"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/middleware"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

const (
	detailInternal        = "Internal server error"
	detailNotEnoughPerms  = "Not enough permissions"
	detailBookNotFound    = "Book not found"
	detailLibraryNotFound = "Library not found"
	detailLibraryNotEmpty = "Cannot delete library that contains books. Move or remove the books first."
	detailDuplicateISBN   = "A book with this ISBN already exists"
	detailInvalidBody     = "Invalid request body"
	detailIncorrectLogin  = "Incorrect email or password"
	detailEmailRegistered = "Email already registered"
	detailRegistrationOff = "Registration is disabled"
	detailDetailsNotFound = "Book details not found from external API"
	detailDatabaseDown    = "Database unavailable"
	detailInvalidPaginate = "skip and limit must be non-negative integers"
	detailInvalidISBN     = "Invalid ISBN"
)

// errValidation marks a request that parsed but failed field checks
var errValidation = errors.New("validation failed")

// validationError marks a failed ValidateStruct result with errValidation
func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errValidation, err)
}

func respondWithError(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, map[string]interface{}{"detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithStoreError maps the catalog's sentinel errors to a status and
// detail. Anything unrecognised is logged and reported as 500.
func respondWithStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrAuthorizationDenied):
		respondWithError(w, http.StatusForbidden, detailNotEnoughPerms)
	case errors.Is(err, store.ErrBookNotFound):
		respondWithError(w, http.StatusNotFound, detailBookNotFound)
	case errors.Is(err, store.ErrLibraryNotFound):
		respondWithError(w, http.StatusNotFound, detailLibraryNotFound)
	case errors.Is(err, store.ErrLibraryNotEmpty):
		respondWithError(w, http.StatusBadRequest, detailLibraryNotEmpty)
	case errors.Is(err, store.ErrDuplicateISBN):
		respondWithError(w, http.StatusBadRequest, detailDuplicateISBN)
	case errors.Is(err, errValidation):
		respondWithError(w, http.StatusUnprocessableEntity, strings.TrimPrefix(err.Error(), errValidation.Error()+": "))
	default:
		log.Printf("endpoints: %v", err)
		respondWithError(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeJSON reads a single JSON object into v
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errValidation, err)
	}
	return nil
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// requester returns the user the bearer middleware resolved
func requester(r *http.Request) (*model.User, string) {
	id, ok := identity.Get(r.Context())
	if !ok || id == nil {
		return nil, middleware.ClientIP(r)
	}
	ip := middleware.ClientIP(r)
	if id.RemoteIP != nil {
		ip = id.RemoteIP.String()
	}
	return id.User, ip
}

// queryInt reads a non-negative integer query parameter
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", errValidation, detailInvalidPaginate)
	}
	return v, nil
}
