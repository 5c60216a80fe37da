package store

// HealthStore provides health check operations
type HealthStore interface {
	// CheckConnectivity verifies the database answers a ping
	CheckConnectivity() error
}
