package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/chatstation-server/internal/api/http/respond"
	"github.com/dtroode/chatstation-server/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health serves the readiness probe.
type Health struct {
	store   Pinger
	timeout time.Duration
	logger  *logger.Logger
}

func NewHealth(store Pinger, timeout time.Duration, logger *logger.Logger) *Health {
	return &Health{store: store, timeout: timeout, logger: logger}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "error", err.Error())
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
