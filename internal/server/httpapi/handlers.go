package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
)

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ID           string `json:"id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type registerRequest struct {
	UserName string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountView struct {
	ID        string    `json:"id"`
	UserName  string    `json:"username"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	pair, err := s.accounts.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, common.ErrorUnauthorized.Error())
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	s.logger.Info(r.Context(), "Logged in", "id", pair.AccountID)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ID:           pair.AccountID,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	// an unreadable body is treated as a missing token
	_ = decodeJSON(w, r, &req)

	access, err := s.accounts.Refresh(r.Context(), req.RefreshToken)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
	case errors.Is(err, common.ErrRefreshTokenRequired):
		writeMessage(w, http.StatusUnauthorized, "Refresh Token is required")
	case errors.Is(err, common.ErrInvalidRefreshToken):
		writeMessage(w, http.StatusForbidden, "Invalid refresh token")
	default:
		s.logger.Error(r.Context(), "refresh failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := s.accounts.Logout(r.Context(), userID)
	switch {
	case err == nil:
		s.logger.Info(r.Context(), "Logged out", "id", userID)
		writeMessage(w, http.StatusOK, "Logged out successfully")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	default:
		s.logger.Error(r.Context(), "logout failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	account, err := s.accounts.Register(r.Context(), services.RegisterInput{
		UserName: strings.TrimSpace(req.UserName),
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "username or email already taken")
		return
	default:
		s.logger.Error(r.Context(), "registration failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", account.UserName)
	writeJSON(w, http.StatusCreated, map[string]accountView{
		"user": {
			ID:        account.ID,
			UserName:  account.UserName,
			Name:      account.Name,
			Surname:   account.Surname,
			Email:     account.Email,
			CreatedAt: account.CreatedAt,
		},
	})
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User authenticated successfully",
		"user":    map[string]string{"id": userID},
	})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	err := s.accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Password changed successfully")
	case errors.Is(err, common.ErrorValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Incorrect current password")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	default:
		s.logger.Error(r.Context(), "password change failed", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
