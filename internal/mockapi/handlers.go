package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dayon-app/dayon-go/internal/core/domain"
	"github.com/dayon-app/dayon-go/internal/telemetry/logger"
)

var (
	errNotFound       = errors.New("not found")
	errEmailTaken     = errors.New("email taken")
	errWrongPassword  = errors.New("wrong password")
	errNotCancellable = errors.New("reservation already confirmed")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Handler implements the API endpoints over a Store.
type Handler struct {
	store *Store
	log   logger.Logger
}

// NewHandler creates a handler.
func NewHandler(store *Store, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{store: store, log: log}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := userFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
	}
	return u, ok
}

func routeID(r *http.Request) domain.ID {
	return domain.ID(mux.Vars(r)["id"])
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decode(w, r, &creds) {
		return
	}
	if err := creds.Validate(); err != nil {
		writeValidation(w, err.(*domain.ValidationError))
		return
	}

	user, ok := h.store.Authenticate(creds.Email, creds.Password)
	if !ok {
		writeValidation(w, domain.NewValidationError("The provided credentials are incorrect.").
			Add("email", "The provided credentials are incorrect."))
		return
	}

	token := h.store.IssueToken(user.ID, creds.DeviceName)
	h.log.WithContext(r.Context()).Info("user logged in", "user_id", user.ID.String(), "device", creds.DeviceName)
	writeJSON(w, http.StatusOK, domain.AuthResponse{Token: token, User: &user})
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if !decode(w, r, &reg) {
		return
	}

	ve := domain.NewValidationError("The given data was invalid.")
	if err := reg.Validate(); err != nil {
		ve = err.(*domain.ValidationError)
	}
	if reg.Password != "" && len(reg.Password) < MinPasswordLength {
		ve.Add("password", "The password field must be at least 8 characters.")
	}
	if reg.Email != "" && h.store.EmailExists(reg.Email) {
		ve.Add("email", "The email has already been taken.")
	}
	if !ve.Empty() {
		writeValidation(w, ve)
		return
	}

	user, err := h.store.CreateUser(reg.Name, reg.Email, reg.Password)
	if errors.Is(err, errEmailTaken) {
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("email", "The email has already been taken."))
		return
	}
	if err != nil {
		h.log.Error("create user failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	token := h.store.IssueToken(user.ID, reg.DeviceName)
	h.log.WithContext(r.Context()).Info("user registered", "user_id", user.ID.String())
	writeJSON(w, http.StatusCreated, domain.AuthResponse{Token: token, User: &user})
}

// Logout handles POST /logout by revoking the presented token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.RevokeToken(tokenIDFrom(r.Context()))
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// ForgotPassword handles POST /forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("email", "The email field is required."))
		return
	}
	if !h.store.RequestReset(body.Email) {
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("email", "We can't find a user with that email address."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "We have emailed your password reset link."})
}

// Profile handles GET /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, domain.ProfileResponse{User: &user})
}

// UpdateProfile handles PUT /profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decode(w, r, &body) {
		return
	}

	ve := domain.NewValidationError("The given data was invalid.")
	if strings.TrimSpace(body.Name) == "" {
		ve.Add("name", "The name field is required.")
	}
	if strings.TrimSpace(body.Email) == "" {
		ve.Add("email", "The email field is required.")
	} else if !domain.ValidEmail(strings.TrimSpace(body.Email)) {
		ve.Add("email", "The email field must be a valid email address.")
	}
	if !ve.Empty() {
		writeValidation(w, ve)
		return
	}

	updated, err := h.store.UpdateUser(user.ID, body.Name, body.Email)
	switch {
	case errors.Is(err, errEmailTaken):
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("email", "The email has already been taken."))
		return
	case err != nil:
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}
	writeJSON(w, http.StatusOK, domain.ProfileResponse{User: &updated, Message: "Profile updated successfully"})
}

// ChangePassword handles PUT /profile/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Current      string `json:"current_password"`
		Password     string `json:"password"`
		Confirmation string `json:"password_confirmation"`
	}
	if !decode(w, r, &body) {
		return
	}

	ve := domain.NewValidationError("The given data was invalid.")
	if body.Current == "" {
		ve.Add("current_password", "The current password field is required.")
	}
	if body.Password == "" {
		ve.Add("password", "The password field is required.")
	} else if len(body.Password) < MinPasswordLength {
		ve.Add("password", "The password field must be at least 8 characters.")
	} else if body.Password != body.Confirmation {
		ve.Add("password", "The password field confirmation does not match.")
	}
	if !ve.Empty() {
		writeValidation(w, ve)
		return
	}

	err := h.store.ChangePassword(user.ID, body.Current, body.Password)
	switch {
	case errors.Is(err, errWrongPassword):
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("current_password", "The password is incorrect."))
		return
	case err != nil:
		h.log.Error("change password failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

// Properties handles GET /properties.
func (h *Handler) Properties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.Property{"properties": h.store.Properties()})
}

// PropertyLocation handles GET /properties_map/{id}.
func (h *Handler) PropertyLocation(w http.ResponseWriter, r *http.Request) {
	lat, long, ok := h.store.Location(routeID(r))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Property not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"location": map[string]string{"lat": lat, "long": long},
	})
}

// Reservations handles GET /reservations.
func (h *Handler) Reservations(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	list := h.store.Reservations(user.ID)
	if list == nil {
		list = []domain.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Reservation{"reservations": list})
}

// CreateReservation handles POST /reservations.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var body domain.NewReservation
	if !decode(w, r, &body) {
		return
	}
	if err := body.Validate(); err != nil {
		writeValidation(w, err.(*domain.ValidationError))
		return
	}

	res, err := h.store.CreateReservation(user.ID, body)
	if errors.Is(err, errNotFound) {
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("property_id", "The selected property id is invalid."))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Reservation created successfully",
		"reservation": res,
	})
}

// CancelReservation handles DELETE /reservations/{id}. A confirmed
// reservation answers 409.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	err := h.store.CancelReservation(user.ID, routeID(r))
	switch {
	case errors.Is(err, errNotFound):
		writeMessage(w, http.StatusNotFound, "Reservation not found.")
	case errors.Is(err, errNotCancellable):
		writeMessage(w, http.StatusConflict, "Confirmed reservations cannot be cancelled.")
	default:
		writeMessage(w, http.StatusOK, "Reservation cancelled successfully")
	}
}

// Reviews handles GET /properties/{id}/reviews.
func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	list, ok := h.store.Reviews(routeID(r))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Property not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Review{"reviews": list})
}

// CreateReview handles POST /properties/{id}/reviews. The rating may be a
// string or a number.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Rating  domain.Decimal `json:"rating"`
		Comment string         `json:"comment"`
	}
	if !decode(w, r, &body) {
		return
	}

	rating, err := strconv.Atoi(strings.TrimSpace(body.Rating.String()))
	if err != nil || rating < domain.MinRating || rating > domain.MaxRating {
		writeValidation(w, domain.NewValidationError("The given data was invalid.").
			Add("rating", "The rating must be between 1 and 5."))
		return
	}

	if _, err := h.store.AddReview(routeID(r), user, rating, strings.TrimSpace(body.Comment)); err != nil {
		writeMessage(w, http.StatusNotFound, "Property not found.")
		return
	}
	writeMessage(w, http.StatusCreated, "Review submitted successfully")
}
