package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

type Handler struct {
	view   *storefront.View
	admin  *admin.Controller
	probes []clients.HealthProbe
	log    logrus.FieldLogger
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "storefront",
	})
}

func (h *Handler) Upstreams(w http.ResponseWriter, r *http.Request) {
	results := clients.CheckAll(r.Context(), h.probes)
	status, code := "ok", http.StatusOK
	if !clients.Healthy(results) {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"service":  "storefront",
		"upstream": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

// writeError maps the client error taxonomy onto a status code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Warn("request failed")
	}
	writeErrorMessage(w, r, status, msg)
}

func statusFor(err error) (int, string) {
	var verr *admin.ValidationError
	var rej *clients.ServerRejection
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, admin.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, admin.ErrNotLoggedIn), clients.IsAuthExpired(err):
		return http.StatusUnauthorized, "admin session expired, please log in again"
	case errors.Is(err, storefront.ErrUnknownProduct):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, storefront.ErrOutOfStock),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidState):
		return http.StatusConflict, err.Error()
	case errors.As(err, &rej):
		if rej.Message == "" {
			return http.StatusUnprocessableEntity, rej.Error()
		}
		return http.StatusUnprocessableEntity, rej.Message
	case clients.IsTransport(err):
		return http.StatusBadGateway, "bookstore backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
