// Package server provides the HTTP server for the catalog API.
//
// NewServer builds every component from the configuration and a database
// handle: GORM stores, the password hasher, the token codec, the
// authenticator, the session resolver, the ownership authorizer, the
// OpenLibrary client and the bearer middleware. Routes are added by the
// endpoints subpackage:
//
//	srv, err := server.NewServer(cfg, db, "0.0.0.0", "8000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	endpoints.RegisterAll(srv)
//	log.Fatal(srv.Start())
//
// The handler chain is access log, CORS (only when origins are configured),
// panic recovery, then the router.
package server
