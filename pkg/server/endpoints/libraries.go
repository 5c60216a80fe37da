package endpoints

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/wildbranch/wbl-catalog/pkg/authz"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// LibraryRequest is the body of POST and PUT /api/libraries
type LibraryRequest struct {
	Name string `json:"name"`
}

// RegisterLibrariesEndpoints registers the library endpoints. Every route
// requires a bearer token.
func RegisterLibrariesEndpoints(s *server.Server) {
	librariesRouter := s.Router.PathPrefix("/api/libraries").Subrouter()
	librariesRouter.Use(s.Bearer.Middleware)

	librariesRouter.HandleFunc("", handleListLibraries(s.LibrariesStore)).Methods("GET")
	librariesRouter.HandleFunc("/all", handleListAllLibraries(s.LibrariesStore, s.Authorizer)).Methods("GET")
	librariesRouter.HandleFunc("", handleCreateLibrary(s.LibrariesStore)).Methods("POST")
	librariesRouter.HandleFunc("/{id:[0-9]+}", handleGetLibrary(s.LibrariesStore, s.Authorizer)).Methods("GET")
	librariesRouter.HandleFunc("/{id:[0-9]+}", handleUpdateLibrary(s.LibrariesStore, s.Authorizer)).Methods("PUT")
	librariesRouter.HandleFunc("/{id:[0-9]+}", handleDeleteLibrary(s.LibrariesStore, s.Authorizer)).Methods("DELETE")
}

func handleListLibraries(libraries store.LibrariesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requester(r)

		list, err := libraries.ListLibraries(user.ID)
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if list == nil {
			list = []model.Library{}
		}
		respondWithJSON(w, http.StatusOK, list)
	}
}

// handleListAllLibraries lists every library the requester may read. The
// filter runs through the authorizer without auditing each row.
func handleListAllLibraries(libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requester(r)

		all, err := libraries.ListAllLibraries()
		if err != nil {
			respondWithStoreError(w, err)
			return
		}

		visible := make([]model.Library, 0, len(all))
		for i := range all {
			if authorizer.Authorize(authz.ActionRead, all[i].OwnerID(), user).Allowed() {
				visible = append(visible, all[i])
			}
		}
		respondWithJSON(w, http.StatusOK, visible)
	}
}

func handleGetLibrary(libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		library, ok := fetchAuthorizedLibrary(w, r, libraries, authorizer, authz.ActionRead)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, library)
	}
}

func handleCreateLibrary(libraries store.LibrariesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requester(r)

		var req LibraryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if err := req.validate(); err != nil {
			respondWithStoreError(w, err)
			return
		}

		library := &model.Library{Name: req.Name, UserID: user.ID}
		if err := libraries.CreateLibrary(library); err != nil {
			respondWithStoreError(w, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, library)
	}
}

func handleUpdateLibrary(libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LibraryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if err := req.validate(); err != nil {
			respondWithStoreError(w, err)
			return
		}

		library, ok := fetchAuthorizedLibrary(w, r, libraries, authorizer, authz.ActionWrite)
		if !ok {
			return
		}

		library.Name = req.Name
		if err := libraries.UpdateLibrary(library); err != nil {
			respondWithStoreError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, library)
	}
}

func handleDeleteLibrary(libraries store.LibrariesStore, authorizer *authz.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, clientIP := requester(r)
		id, ok := pathID(r)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		library, err := libraries.FetchLibrary(id)
		if errors.Is(err, store.ErrLibraryNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			respondWithStoreError(w, err)
			return
		}
		if err := authorizer.Check(authz.ActionDelete, authz.LibraryTarget(library), user, clientIP); err != nil {
			respondWithStoreError(w, err)
			return
		}

		if err := libraries.DeleteLibrary(id); err != nil && !errors.Is(err, store.ErrLibraryNotFound) {
			respondWithStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// fetchAuthorizedLibrary loads the {id} library and checks action on it,
// writing the error response itself when either step fails.
func fetchAuthorizedLibrary(
	w http.ResponseWriter,
	r *http.Request,
	libraries store.LibrariesStore,
	authorizer *authz.Authorizer,
	action authz.Action,
) (*model.Library, bool) {
	user, clientIP := requester(r)
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, detailLibraryNotFound)
		return nil, false
	}

	library, err := libraries.FetchLibrary(id)
	if err != nil {
		respondWithStoreError(w, err)
		return nil, false
	}
	if err := authorizer.Check(action, authz.LibraryTarget(library), user, clientIP); err != nil {
		respondWithStoreError(w, err)
		return nil, false
	}
	return library, true
}

func (req *LibraryRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, model.MaxLibraryNameLength)),
	))
}
