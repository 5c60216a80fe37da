package endpoints

import (
	"github.com/wildbranch/wbl-catalog/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterLoginEndpoints(srv)
	RegisterUsersEndpoints(srv)

	// The public details route shares the /api/books prefix and has to be
	// matched before the protected subrouter.
	RegisterBookDetailsEndpoint(srv)
	RegisterBooksEndpoints(srv)
	RegisterLibrariesEndpoints(srv)
}
