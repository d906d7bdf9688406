package handlers

import (
	"net/http"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/handlers/render"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers/userctx"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
	"github.com/TingC12/Chicken-fitness-app/internal/service/activity"
)

func handleCreateCheckin(activityService activityService, l logger.Logger) http.Handler {
	type request struct {
		StartedAt      time.Time  `json:"started_at" validate:"required"`
		EndedAt        *time.Time `json:"ended_at"`
		IdempotencyKey *string    `json:"idempotency_key" validate:"omitempty,max=64"`
	}
	type response struct {
		ActivityID   int64 `json:"activity_id"`
		CoinsAwarded int64 `json:"coins_awarded"`
		Balance      int64 `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := activityService.RecordCheckin(r.Context(), user.ID, activity.CheckinParams{
			StartedAt:      data.StartedAt,
			EndedAt:        data.EndedAt,
			IdempotencyKey: data.IdempotencyKey,
		})
		if err != nil {
			l.Error("Failed to record checkin", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			ActivityID:   res.Activity.ID,
			CoinsAwarded: res.CoinsAwarded,
			Balance:      res.Balance,
		})
	})
}
