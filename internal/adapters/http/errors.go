package http

import (
	"errors"
	"net/http"

	"catalog-server/internal/adapters/http/request"
	"catalog-server/internal/adapters/http/response"
	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
	"catalog-server/internal/query"
)

// statusFor maps a service error onto the HTTP status reported to clients.
func statusFor(err error) int {
	var (
		verr     *domain.ValidationError
		mismatch *domain.IDMismatchError
		owned    *domain.AlreadyOwnedError
		notOwned *domain.NotOwnedError
		external *domain.ExternalServiceError
	)

	switch {
	case errors.As(err, &verr),
		errors.As(err, &mismatch),
		errors.As(err, &owned),
		errors.As(err, &notOwned),
		errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, request.ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBadCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &external):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, writer response.ResponseWriter, log logger.Logger, err error) {
	status := statusFor(err)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writer.WriteValidationError(w, status, map[string]string{verr.Field: verr.Error()})
		return
	}

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed", "error", err)
		message = "internal server error"
	case http.StatusServiceUnavailable:
		log.Warn("external service failed", "error", err)
		message = "book metadata service unavailable"
	}

	writer.Write(w, status, &response.Response{Message: message})
}
