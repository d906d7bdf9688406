package handlers

import (
	"net/http"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/handlers/render"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers/userctx"
)

func handleMe() http.Handler {
	type response struct {
		UserID    int64     `json:"user_id"`
		Status    string    `json:"status"`
		Provider  *string   `json:"auth_provider"`
		Email     *string   `json:"email"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			UserID:    user.ID,
			Status:    user.Status,
			Provider:  user.AuthProvider,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		})
	})
}
