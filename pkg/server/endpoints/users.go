package endpoints

import (
	"errors"
	"log"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/wildbranch/wbl-catalog/pkg/audit"
	"github.com/wildbranch/wbl-catalog/pkg/config"
	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server"
	"github.com/wildbranch/wbl-catalog/pkg/server/middleware"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// RegisterRequest is the body of POST /api/users
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// RegisterResponse signs the new user in straight away
type RegisterResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

// RegisterUsersEndpoints registers self-service registration and /me
func RegisterUsersEndpoints(s *server.Server) {
	s.Router.HandleFunc(
		"/api/users",
		handleRegister(s.UsersStore, s.Hasher, s.Codec, s.Config),
	).Methods("POST")

	meRouter := s.Router.PathPrefix("/api/users/me").Subrouter()
	meRouter.Use(s.Bearer.Middleware)
	meRouter.HandleFunc("", handleMe()).Methods("GET")
}

func handleRegister(
	users store.UsersStore,
	hasher *password.Hasher,
	issuer TokenIssuer,
	cfg *config.CatalogConfig,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := middleware.ClientIP(r)

		if cfg != nil && !cfg.RegistrationEnabled {
			respondWithError(w, http.StatusForbidden, detailRegistrationOff)
			return
		}

		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, detailInvalidBody)
			return
		}
		if err := req.validate(); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		hash, err := hasher.Hash(req.Password)
		if err != nil {
			log.Printf("register: %v", err)
			respondWithError(w, http.StatusInternalServerError, detailInternal)
			return
		}

		user := &model.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := users.CreateUser(user); err != nil {
			audit.Log(audit.RegistrationEvent{
				Email:        req.Email,
				ClientIP:     clientIP,
				ErrorMessage: err.Error(),
			})
			if errors.Is(err, store.ErrDuplicateEmail) {
				respondWithError(w, http.StatusBadRequest, detailEmailRegistered)
				return
			}
			log.Printf("register: %v", err)
			respondWithError(w, http.StatusInternalServerError, detailInternal)
			return
		}

		audit.Log(audit.RegistrationEvent{
			Email:    user.Email,
			ClientIP: clientIP,
			Success:  true,
		})

		tok, err := issueToken(issuer, cfg, user)
		if err != nil {
			log.Printf("register: failed to issue token for %s: %v", user.Email, err)
			respondWithError(w, http.StatusInternalServerError, detailInternal)
			return
		}

		respondWithJSON(w, http.StatusCreated, RegisterResponse{
			TokenResponse: *tok,
			User:          newUserResponse(user),
		})
	}
}

func (req *RegisterRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	return validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := requester(r)
		if user == nil {
			respondWithError(w, http.StatusUnauthorized, middleware.DetailCouldNotValidate)
			return
		}
		respondWithJSON(w, http.StatusOK, newUserResponse(user))
	}
}
