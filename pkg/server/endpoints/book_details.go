package endpoints

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wildbranch/wbl-catalog/pkg/openlibrary"
	"github.com/wildbranch/wbl-catalog/pkg/server"
)

const detailLookupUnavailable = "Book details service unavailable"

// RegisterBookDetailsEndpoint registers the public ISBN lookup. It must be
// registered before the protected /api/books subrouter so that it is matched
// first.
func RegisterBookDetailsEndpoint(s *server.Server) {
	s.Router.HandleFunc("/api/books/details/{isbn}", handleBookDetails(s.BookLookup)).Methods("GET")
}

func handleBookDetails(lookup openlibrary.Lookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isbn := mux.Vars(r)["isbn"]

		details, err := lookup.Lookup(r.Context(), isbn)
		switch {
		case err == nil:
			respondWithJSON(w, http.StatusOK, details)
		case errors.Is(err, openlibrary.ErrNotFound):
			respondWithError(w, http.StatusNotFound, detailDetailsNotFound)
		case errors.Is(err, openlibrary.ErrInvalidISBN):
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidISBN)
		default:
			log.Printf("book details %s: %v", isbn, err)
			respondWithError(w, http.StatusBadGateway, detailLookupUnavailable)
		}
	}
}
