package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
)

type apiError struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, apiError{Status: "error", Reason: reason, Message: message})
}

// writeServiceError maps the service sentinels onto HTTP statuses and
// machine-readable reason tags the Android client branches on.
func writeServiceError(w http.ResponseWriter, err error) {
	var notActivated *service.NotActivatedError
	switch {
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrDeviceNotFound),
		errors.Is(err, service.ErrKeyNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, service.ErrKeyUsed):
		writeError(w, http.StatusConflict, "key-already-used", err.Error())
	case errors.Is(err, service.ErrDeviceLimit):
		writeError(w, http.StatusConflict, "device-limit-reached", err.Error())
	case errors.Is(err, service.ErrUnauthorizedDevice):
		writeError(w, http.StatusForbidden, "unauthorized-device", err.Error())
	case errors.Is(err, service.ErrNotRegistered):
		writeError(w, http.StatusForbidden, "not-registered", err.Error())
	case errors.As(err, &notActivated):
		writeError(w, http.StatusForbidden, "not-activated", err.Error())
	case errors.Is(err, service.ErrLicenseExpired):
		writeError(w, http.StatusForbidden, "expired", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "validation", message)
}
