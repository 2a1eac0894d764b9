package auth

import (
	"github.com/google/uuid"

	errs "goban/internal/errors"
	"goban/internal/random"
)

type AuthUsecaseHandler struct {
	sessionStorage SessionStorage
}

func NewUserUsecaseHandler(s SessionStorage) *AuthUsecaseHandler {
	return &AuthUsecaseHandler{
		sessionStorage: s,
	}
}

type SessionStorage interface {
	GetUserIdBySession(sessionID string) (userID string, ok bool)
	StoreSession(sessionID string, userID string)
	DeleteSession(sessionID string) (ok bool)
}

// LoginUser creates a fresh session for the player. Players are identified by
// a generated id; no account registry is kept, the session is the identity.
func (a *AuthUsecaseHandler) LoginUser() (sessionID string, userID string) {
	userID = uuid.New().String()
	sessionID = random.RandString(64)
	a.sessionStorage.StoreSession(sessionID, userID)
	return sessionID, userID
}

// LogoutUser returns nil or ErrSessionNotFound.
func (a *AuthUsecaseHandler) LogoutUser(sessionID string) error {
	_, ok := a.sessionStorage.GetUserIdBySession(sessionID)
	if !ok {
		return errs.ErrSessionNotFound
	}
	if ok = a.sessionStorage.DeleteSession(sessionID); !ok {
		return errs.ErrSessionNotFound
	}
	return nil
}

func (a *AuthUsecaseHandler) GetUserIdFromSession(sessionID string) (string, error) {
	userID, ok := a.sessionStorage.GetUserIdBySession(sessionID)
	if !ok {
		return "", errs.ErrSessionNotFound
	}
	return userID, nil
}
