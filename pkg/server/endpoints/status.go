package endpoints

import (
	"log"
	"net/http"
	"os"

	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// StatusResponse is returned by GET /
type StatusResponse struct {
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health when the database answers
type HealthResponse struct {
	Status string `json:"status"`
}

// RegisterStatusEndpoints registers the status and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore)).Methods("GET")
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("WBL_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}
		respondWithJSON(w, http.StatusOK, StatusResponse{Version: version})
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(); err != nil {
			log.Printf("health: %v", err)
			respondWithError(w, http.StatusServiceUnavailable, detailDatabaseDown)
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
