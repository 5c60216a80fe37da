// Package middleware holds HTTP middleware shared by the catalog routes.
package middleware
