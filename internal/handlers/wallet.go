package handlers

import (
	"net/http"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/handlers/render"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers/userctx"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
)

const walletHistoryLimit = 20

func handleWallet(ledgerService ledgerService, l logger.Logger) http.Handler {
	type entry struct {
		Delta     int64     `json:"delta"`
		Source    string    `json:"source"`
		CreatedAt time.Time `json:"created_at"`
	}
	type response struct {
		Balance int64   `json:"balance"`
		Entries []entry `json:"entries"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balance, err := ledgerService.Balance(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		history, err := ledgerService.History(r.Context(), user.ID, walletHistoryLimit)
		if err != nil {
			l.Error("Failed to get ledger history", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		entries := make([]entry, 0, len(history))
		for _, e := range history {
			entries = append(entries, entry{Delta: e.Delta, Source: e.Source, CreatedAt: e.CreatedAt})
		}

		render.JSON(w, response{Balance: balance, Entries: entries})
	})
}
