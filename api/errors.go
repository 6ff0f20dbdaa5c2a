package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"piggyvault/domain/entities"
)

// errorResponse is the uniform error envelope returned by every endpoint
type errorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, code, kind, message string) {
	writeJSON(w, status, errorResponse{Code: code, Kind: kind, Message: message})
}

// writeServiceError maps a failed operation onto an HTTP response. Vault
// errors translate by kind and reason code, anything else is a 500 with a
// generic body.
func writeServiceError(w http.ResponseWriter, err error) {
	var vaultErr *entities.VaultError
	if errors.As(err, &vaultErr) {
		writeError(w, statusForVaultError(vaultErr), vaultErr.Code, string(vaultErr.Kind), vaultErr.Message)
		return
	}

	log.WithError(err).Error("Unhandled error in HTTP handler")
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal", "internal server error")
}

func statusForVaultError(vaultErr *entities.VaultError) int {
	// Reason codes that override the kind-level mapping
	switch vaultErr.Code {
	case entities.ErrCodeDepositNotFound, entities.ErrCodePlanNotFound, entities.ErrCodePositionNotFound:
		return http.StatusNotFound
	case entities.ErrCodeNotOwner:
		return http.StatusForbidden
	case entities.ErrCodeInsufficientFunds:
		return http.StatusConflict
	}

	switch vaultErr.Kind {
	case entities.ErrorKindValidation:
		return http.StatusBadRequest
	case entities.ErrorKindStateConflict, entities.ErrorKindResourceExhausted:
		return http.StatusConflict
	case entities.ErrorKindCollaboratorFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
