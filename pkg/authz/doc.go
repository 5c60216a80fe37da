// Package authz implements the catalog's ownership rule: a user may read,
// change or delete a book or library only if they own it or are a superuser.
package authz
