package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/user/taskman-go/apperror"
)

// Handlers exposes the AuthService over HTTP.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary Register a new user
// @Description Creates a user account and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "Registration details"
// @Success 200 {object} auth.TokenResponse "Token issued"
// @Failure 400 {object} apperror.ErrorResponse "Malformed request body"
// @Failure 422 {object} apperror.ErrorResponse "Validation failed"
// @Router /register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		resp, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies credentials and returns a new bearer token. Previously issued tokens stay valid.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "Login credentials"
// @Success 200 {object} auth.TokenResponse "Token issued"
// @Failure 400 {object} apperror.ErrorResponse "Malformed request body"
// @Failure 422 {object} apperror.ErrorResponse "Invalid credentials"
// @Router /login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleLogout godoc
// @Summary Log out
// @Description Revokes every token belonging to the authenticated user.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.MessageResponse "Logged out"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Router /logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewAuthError("Unauthenticated", nil))
			return
		}

		if err := h.service.Logout(r.Context(), userID); err != nil {
			WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
	}
}

// writeJSON serializes data to JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"message":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteError writes a standardized error response. Errors that are not
// *AppError values are wrapped as internal errors, and server-side failures
// are logged with their underlying cause.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, appErr)
	}
	writeJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
