// Command wblctl runs and administers the wbl-catalog server.
//
// # Quick Start
//
//	# Generate a token signing key
//	export WBL_SIGNING_KEY="$(wblctl signing-key generate)"
//
//	# Run database migrations
//	wblctl db migrate
//
//	# Create the first user
//	wblctl user create admin admin@example.com --superuser
//
//	# Start the server
//	wblctl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - WBL_SIGNING_KEY: secret used to sign access tokens (at least 32 bytes)
//   - WBL_CONFIG_PATH: directory holding wbl.yml (default /etc/wbl/config)
//   - WBL_LOG_LEVEL: set to debug to log SQL
//   - WBL_AUDIT_ENABLED: set to false to silence the audit log
//   - PORT: Server port (default: 8000)
package main
