package endpoints

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/wildbranch/wbl-catalog/pkg/audit"
	"github.com/wildbranch/wbl-catalog/pkg/authenticator"
	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/middleware"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

// TokenType is the OAuth2 token_type of every issued access token
const TokenType = "bearer"

// LoginRequest is the JSON body accepted by the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful sign-in
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenIssuer issues access tokens for a subject
type TokenIssuer interface {
	Issue(subject string, validity time.Duration) (string, error)
}

// RegisterLoginEndpoints registers the access token endpoint
func RegisterLoginEndpoints(s *server.Server) {
	s.Router.HandleFunc(
		"/api/login/access-token",
		handleLogin(s.Authenticator, s.Codec, s.Config),
	).Methods("POST")
}

func handleLogin(auth *authenticator.Authenticator, issuer TokenIssuer, cfg *config.CatalogConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := middleware.ClientIP(r)

		req, err := readLoginRequest(r)
		if err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		user, err := auth.Authenticate(req.Email, req.Password)
		if err != nil {
			if !errors.Is(err, authenticator.ErrInvalidCredentials) {
				log.Printf("login: %v", err)
				respondWithError(w, http.StatusInternalServerError, detailInternal)
				return
			}
			audit.Log(audit.AuthenticateEvent{
				Email:         req.Email,
				ClientIP:      clientIP,
				Success:       false,
				ErrorMessage:  err.Error(),
				CorruptRecord: errors.Is(err, password.ErrCorruptCredentialRecord),
			})
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondWithError(w, http.StatusUnauthorized, detailIncorrectLogin)
			return
		}

		resp, err := issueToken(issuer, cfg, user)
		if err != nil {
			log.Printf("login: failed to issue token for %s: %v", user.Email, err)
			respondWithError(w, http.StatusInternalServerError, detailInternal)
			return
		}

		audit.Log(audit.AuthenticateEvent{
			Email:    user.Email,
			ClientIP: clientIP,
			Success:  true,
		})

		w.Header().Set("Cache-Control", "no-store")
		respondWithJSON(w, http.StatusOK, resp)
	}
}

// readLoginRequest accepts either a JSON body or the OAuth2 password form,
// where the email travels in the username field.
func readLoginRequest(r *http.Request) (*LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var req LoginRequest
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, errors.New(detailInvalidBody)
		}
		req.Email = r.PostForm.Get("email")
		if req.Email == "" {
			req.Email = r.PostForm.Get("username")
		}
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		return nil, errors.New(detailInvalidBody)
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}
	return &req, nil
}

func issueToken(issuer TokenIssuer, cfg *config.CatalogConfig, user *model.User) (*TokenResponse, error) {
	ttl := token.DefaultValidity
	if cfg != nil && cfg.AccessTokenTTL > 0 {
		ttl = cfg.AccessTokenTTL
	}

	accessToken, err := issuer.Issue(user.Email, ttl)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   TokenType,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}
