package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/user"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Handler translates HTTP requests into Engine calls.
type Handler struct {
	engine *goAccount.Engine
	logger *zap.Logger
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type confirmationRequest struct {
	ConfirmationCode string `json:"confirmationCode"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type preferencesRequest struct {
	FavoriteDrinks []user.Favorite `json:"favoriteDrinks"`
	FavoriteDishes []user.Favorite `json:"favoriteDishes"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req goAccount.SignUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.SignUp(r.Context(), req)
	h.respond(w, res, err)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req goAccount.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.Login(r.Context(), req)
	h.respond(w, res, err)
}

func (h *Handler) SocialSignIn(w http.ResponseWriter, r *http.Request) {
	var req goAccount.SocialSignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Provider = chi.URLParam(r, "provider")
	res, err := h.engine.SocialSignIn(r.Context(), req)
	h.respond(w, res, err)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.Refresh(r.Context(), req.RefreshToken)
	h.respond(w, res, err)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.ListUsers(r.Context())
	h.respond(w, res, err)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.GetUser(r.Context(), chi.URLParam(r, "user_id"))
	h.respond(w, res, err)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req goAccount.ProfileUpdate
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.UpdateProfile(r.Context(), chi.URLParam(r, "user_id"), req)
	h.respond(w, res, err)
}

func (h *Handler) VerifyConfirmationCode(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.VerifyConfirmationCode(r.Context(), chi.URLParam(r, "user_id"), req.ConfirmationCode)
	h.respond(w, res, err)
}

// ResendConfirmationCode forwards the caller's Authorization header to the
// email service.
func (h *Handler) ResendConfirmationCode(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.ResendConfirmationCode(r.Context(), chi.URLParam(r, "user_id"), req.Email, r.Header.Get("Authorization"))
	h.respond(w, res, err)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !h.decode(w, r, &req) {
		return
	}
	kind := goAccount.PreferenceKind(chi.URLParam(r, "preferences"))
	favorites := req.FavoriteDishes
	if kind == goAccount.PreferenceDrinks {
		favorites = req.FavoriteDrinks
	}
	res, err := h.engine.UpdatePreferences(r.Context(), chi.URLParam(r, "user_id"), kind, favorites)
	h.respond(w, res, err)
}

func (h *Handler) AddPromotion(w http.ResponseWriter, r *http.Request) {
	var req user.Promotion
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.engine.AddPromotion(r.Context(), chi.URLParam(r, "user_id"), req)
	h.respond(w, res, err)
}

// decode reads a JSON body into dst. An empty body leaves dst zero so the
// engine reports the missing fields.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.logger.Debug("malformed body", zap.String("path", r.URL.Path), zap.Error(err))
	middleware.WriteError(w, goAccount.ErrInvalidBody)
	return false
}

func (h *Handler) respond(w http.ResponseWriter, res any, err error) {
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if encErr := json.NewEncoder(w).Encode(res); encErr != nil {
		h.logger.Warn("encode response", zap.Error(encErr))
	}
}
