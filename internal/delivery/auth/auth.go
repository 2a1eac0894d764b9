package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"goban/internal/adapters"
	errs "goban/internal/errors"
	"goban/internal/httpresponse"
	repo "goban/internal/repository"
	authUC "goban/internal/usecase/auth"
)

type AuthHandler struct {
	usecaseHandler *authUC.AuthUsecaseHandler
	log            *zap.SugaredLogger
}

type LoginResponse struct {
	UserID string `json:"user_id"`
}

func NewAuthHandler(redis *adapters.AdapterRedis, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		usecaseHandler: authUC.NewUserUsecaseHandler(
			repo.NewSessionRedisStorage(redis.GetClient()),
		),
		log: log,
	}
}

// Login issues a new anonymous session and sets the sessionID cookie.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.log.Error("Login: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	sessionID, userID := a.usecaseHandler.LoginUser()

	http.SetCookie(w, &http.Cookie{
		Name:     "sessionID",
		Value:    sessionID,
		Expires:  time.Now().Add(10 * time.Hour),
		Secure:   true,
		HttpOnly: true,
	})

	a.log.Infof("Login: new session for user %s", userID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, LoginResponse{UserID: userID})
}

func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		a.log.Error("Logout: only DELETE method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only DELETE method is allowed")
		return
	}

	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			a.log.Warn("Logout: no cookie provided")
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: http.ErrNoCookie.Error()})
			return
		}
		a.log.Error("Logout: error retrieving cookie: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	if err := a.usecaseHandler.LogoutUser(sessionCookie.Value); err != nil {
		a.log.Errorf("Logout: failed to logout sessionID=%s: %v", sessionCookie.Value, err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

// GetUserID resolves the session cookie to a user id. On failure it writes
// the error response itself and returns "".
func (a *AuthHandler) GetUserID(w http.ResponseWriter, r *http.Request) string {
	sessionCookie, err := r.Cookie("sessionID")
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			a.log.Warn("GetUserID: no sessionID cookie")
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "sessionID cookie is missing"})
			return ""
		}
		a.log.Error("GetUserID: error retrieving cookie: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return ""
	}

	userID, err := a.usecaseHandler.GetUserIdFromSession(sessionCookie.Value)
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			a.log.Warn("GetUserID: session not found or expired")
			httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
				httpresponse.ErrorResponse{ErrorDescription: "session not found or expired"})
			return ""
		}
		a.log.Error("GetUserID: internal error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return ""
	}

	return userID
}
