// Package password hashes and verifies user passwords with bcrypt.
package password
