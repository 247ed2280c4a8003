package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/internal/resilience"
	"github.com/pjc-mt/casemap/internal/tiles"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps err to a status code and writes it as {"error": ...}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("server: request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeErrorMessage(w, status, publicMessage(status, err))
}

func statusFor(err error) int {
	switch {
	case eris.Is(err, casemap.ErrUnknownStatus),
		eris.Is(err, casemap.ErrUnknownCategory),
		eris.Is(err, tiles.ErrOutOfRange):
		return http.StatusBadRequest
	case eris.Is(err, abitus.ErrNotFound):
		return http.StatusNotFound
	case eris.Is(err, resilience.ErrCircuitOpen),
		eris.Is(err, abitus.ErrEndpointUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func publicMessage(status int, err error) string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return err.Error()
	case http.StatusServiceUnavailable:
		if eris.Is(err, abitus.ErrEndpointUnavailable) {
			return "tip submission is unavailable"
		}
		return "upstream temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "upstream timed out"
	default:
		return "upstream request failed"
	}
}
