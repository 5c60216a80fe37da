// Package config loads the catalog server configuration.
//
// Values come from three places, later ones winning:
//
//   - built-in defaults
//   - $WBL_CONFIG_PATH/wbl.yml (default /etc/wbl/config/wbl.yml)
//   - WBL_* environment variables
//
// Every attribute remembers which of these supplied it, which is what
// `wblctl configuration show` prints. Load does not validate; callers that
// are about to serve requests must call Validate and stop on error.
//
// # Key Configuration Options
//
//   - WBL_SIGNING_KEY: HMAC secret for access tokens (required, 32+ bytes)
//   - WBL_SIGNING_ALGORITHM: HS256, HS384 or HS512
//   - WBL_ACCESS_TOKEN_TTL: token validity as a Go duration, e.g. 720h
//   - WBL_PASSWORD_HASH_COST: bcrypt cost
//   - WBL_REGISTRATION_ENABLED: allow POST /api/users
package config
