package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/TingC12/Chicken-fitness-app/internal/apperrors"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers/render"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
	"github.com/TingC12/Chicken-fitness-app/internal/models"
)

func handleGoogleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		IDToken  string `json:"id_token" validate:"required,min=20"`
		DeviceID string `json:"device_id" validate:"omitempty,max=64"`
	}
	type response struct {
		UserID           int64  `json:"user_id"`
		AccessToken      string `json:"access_token"`
		ExpiresIn        int64  `json:"expires_in"`
		IsGuest          bool   `json:"is_guest"`
		RefreshToken     string `json:"refresh_token"`
		RefreshExpiresIn int64  `json:"refresh_expires_in"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.LoginGoogle(r.Context(), data.IDToken, data.DeviceID, clientMeta(r))
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrUnverifiedIdentity):
			render.ServiceError(w, "Invalid Google id_token", http.StatusUnauthorized)
			return
		case errors.Is(err, apperrors.ErrIdentityConflict):
			render.ServiceError(w, "Email already in use by another account", http.StatusConflict)
			return
		default:
			l.Error("Google login failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			UserID:           session.User.ID,
			AccessToken:      session.Tokens.Access.Value,
			ExpiresIn:        int64(session.Tokens.Access.TTL.Seconds()),
			IsGuest:          session.User.IsGuest(),
			RefreshToken:     session.Tokens.Refresh.Value,
			RefreshExpiresIn: int64(session.Tokens.Refresh.TTL.Seconds()),
		})
	})
}

func handleGuestLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		DeviceID string `json:"device_id" validate:"required,max=64"`
	}
	type response struct {
		UserID           int64  `json:"user_id"`
		AccessToken      string `json:"access_token"`
		ExpiresIn        int64  `json:"expires_in"`
		IsGuest          bool   `json:"is_guest"`
		RefreshToken     string `json:"refresh_token"`
		RefreshExpiresIn int64  `json:"refresh_expires_in"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.LoginGuest(r.Context(), data.DeviceID, clientMeta(r))
		if err != nil {
			l.Error("Guest login failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			UserID:           session.User.ID,
			AccessToken:      session.Tokens.Access.Value,
			ExpiresIn:        int64(session.Tokens.Access.TTL.Seconds()),
			IsGuest:          session.User.IsGuest(),
			RefreshToken:     session.Tokens.Refresh.Value,
			RefreshExpiresIn: int64(session.Tokens.Refresh.TTL.Seconds()),
		})
	})
}

func handleRefresh(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		AccessToken           string `json:"access_token"`
		AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
		RefreshToken          string `json:"refresh_token"`
		RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.Refresh(r.Context(), data.RefreshToken, clientMeta(r))
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrInvalidCredential), errors.Is(err, apperrors.ErrUserNotFound):
			// Token orphaned by account deletion gets the same answer as a
			// bad token, nothing to learn here
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		default:
			l.Error("Refresh failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			AccessToken:           session.Tokens.Access.Value,
			AccessTokenExpiresIn:  int64(session.Tokens.Access.TTL.Seconds()),
			RefreshToken:          session.Tokens.Refresh.Value,
			RefreshTokenExpiresIn: int64(session.Tokens.Refresh.TTL.Seconds()),
		})
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.Logout(r.Context(), data.RefreshToken)
		switch {
		case err == nil, errors.Is(err, apperrors.ErrInvalidCredential):
			// Revoking an unknown token is still a successful logout
		default:
			l.Error("Logout failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Logged out"})
	})
}

// clientMeta extracts audit metadata stored alongside refresh tokens
func clientMeta(r *http.Request) models.ClientMeta {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return models.ClientMeta{IP: host, UserAgent: r.UserAgent()}
}
