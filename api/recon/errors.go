package recon

import (
	"errors"
	"net/http"

	"BankRecon/api"
	"BankRecon/api/constants"
	"BankRecon/internal/ingest"
	"BankRecon/internal/matching"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnknownFormat),
		errors.Is(err, matching.ErrEmptyGroup),
		errors.Is(err, matching.ErrUnsupportedShape):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrUnreadableFile),
		errors.Is(err, ingest.ErrColumnCountMismatch),
		errors.Is(err, ingest.ErrHeaderNotFound),
		errors.Is(err, ingest.ErrMissingCanonicalColumns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, matching.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrAlreadyReconciled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondErr writes domain errors with their own message and hides anything else.
func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		api.LogError("unexpected error: %v", err)
		api.RespondWithError(w, status, constants.ErrInternal)
		return
	}
	api.RespondWithError(w, status, err.Error())
}
