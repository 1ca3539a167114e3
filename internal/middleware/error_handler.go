package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

var kindStatus = []struct {
	kind   error
	status int
}{
	{service.ErrUnauthorized, http.StatusForbidden},
	{service.ErrPayeeNotFound, http.StatusNotFound},
	{service.ErrPaymentNotFound, http.StatusNotFound},
	{service.ErrPayeeAccountNotActive, http.StatusUnprocessableEntity},
	{service.ErrCurrencyUnsupported, http.StatusBadRequest},
	{service.ErrPaymentMethodUnsupported, http.StatusBadRequest},
	{service.ErrAmountBelowMinimum, http.StatusBadRequest},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{service.ErrCountryUnsupported, http.StatusBadRequest},
	{service.ErrInvalidRequest, http.StatusBadRequest},
	{service.ErrOnboardingInProgress, http.StatusConflict},
	{service.ErrProcessorRejected, http.StatusBadGateway},
	{processor.ErrInvalidAddress, http.StatusUnprocessableEntity},
	{processor.ErrTransfersNotAllowed, http.StatusUnprocessableEntity},
	{processor.ErrCrossBorderRestricted, http.StatusUnprocessableEntity},
	{processor.ErrProcessorUnavailable, http.StatusServiceUnavailable},
	{processor.ErrNotConfigured, http.StatusServiceUnavailable},
	{processor.ErrInvalidSignature, http.StatusBadRequest},
	{processor.ErrInvalidPayload, http.StatusBadRequest},
}

// MapError converts service, processor and database errors to an HTTP
// status and response body.
func MapError(err error) (int, ErrorResponse) {
	for _, ks := range kindStatus {
		if !errors.Is(err, ks.kind) {
			continue
		}
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			resp := ErrorResponse{Error: svcErr.Error()}
			if len(svcErr.Details) > 0 {
				resp.Details = svcErr.Details
			}
			return ks.status, resp
		}
		return ks.status, ErrorResponse{Error: err.Error()}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "resource already exists"}
	case errors.Is(err, repository.ErrStaleStatus):
		return http.StatusConflict, ErrorResponse{Error: "payment was updated concurrently"}
	}

	return MapDBError(err)
}

func MapDBError(err error) (int, ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, ErrorResponse{
				Error:   "resource already exists",
				Details: pgErr.Detail,
			}
		case "23503": // foreign_key_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "referenced resource does not exist",
				Details: pgErr.Detail,
			}
		case "23514": // check_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "constraint violation",
				Details: pgErr.Detail,
			}
		}
	}

	log.Error().Err(err).Msg("unhandled error")
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			status, resp := MapError(err)
			c.JSON(status, resp)
		}
	}
}
