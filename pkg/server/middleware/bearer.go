package middleware

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"regexp"

	"github.com/wildbranch/wbl-catalog/pkg/audit"
	"github.com/wildbranch/wbl-catalog/pkg/authenticator"
	"github.com/wildbranch/wbl-catalog/pkg/identity"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

var bearerRegex = regexp.MustCompile(`^(?i:bearer) +(\S+)\s*$`)

// DetailCouldNotValidate is the 401 body detail for every token failure
const DetailCouldNotValidate = "Could not validate credentials"

// SessionResolver turns a bearer token into its user and claims
type SessionResolver interface {
	ResolveSession(tokenString string) (*model.User, *token.Claims, error)
}

// Bearer is middleware that requires a valid bearer token and stores the
// resolved caller in the request context.
type Bearer struct {
	resolver SessionResolver
	log      func(audit.Event)
}

// NewBearer creates the middleware
func NewBearer(resolver SessionResolver) *Bearer {
	return &Bearer{resolver: resolver, log: audit.Log}
}

// Middleware returns an HTTP middleware that rejects requests without a
// resolvable token before the wrapped handler runs
func (b *Bearer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)

		matches := bearerRegex.FindStringSubmatch(r.Header.Get("Authorization"))
		if len(matches) != 2 {
			b.reject(w, r, clientIP, "missing or malformed authorization header")
			return
		}

		user, claims, err := b.resolver.ResolveSession(matches[1])
		if err != nil {
			if errors.Is(err, authenticator.ErrInvalidToken) {
				b.reject(w, r, clientIP, err.Error())
				return
			}
			log.Printf("bearer: failed to resolve session: %v", err)
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		id := identity.FromUser(user, claims).WithRemoteIP(net.ParseIP(clientIP))
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func (b *Bearer) reject(w http.ResponseWriter, r *http.Request, clientIP, reason string) {
	if b.log != nil {
		b.log(audit.SessionEvent{
			ClientIP:     clientIP,
			Method:       r.Method,
			Path:         r.URL.Path,
			ErrorMessage: reason,
		})
	}
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, DetailCouldNotValidate)
}

// ClientIP returns the host part of the request's remote address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	response, _ := json.Marshal(map[string]string{"detail": detail})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
