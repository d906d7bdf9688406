package handlers

import (
	"net/http"

	"github.com/TingC12/Chicken-fitness-app/internal/handlers/render"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers/userctx"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
)

func handlePetStatus(petService petStatusService, l logger.Logger) http.Handler {
	type response struct {
		Status      string  `json:"status"`
		WeeklyCount int     `json:"weekly_count"`
		Streak      int     `json:"streak"`
		Multiplier  float64 `json:"multiplier"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		status, err := petService.Status(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get pet status", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			Status:      status.Status,
			WeeklyCount: status.WeeklyCount,
			Streak:      status.Streak,
			Multiplier:  status.Multiplier,
		})
	})
}
