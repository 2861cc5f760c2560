package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/domain"
)

// statusFor maps an error to its HTTP status and the message shown to the
// client. Storage and unexpected errors never expose their text. An
// *echo.HTTPError keeps its own code even when it wraps a domain error.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, clientMessage(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, clientMessage(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "missing or invalid token"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "storage error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// clientMessage strips the sentinel prefix from "sentinel: detail".
func clientMessage(err, sentinel error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok && detail != "" {
		return detail
	}
	return msg
}

// ErrorHandler renders every error as {"message": ...}.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := statusFor(err)

		entry := logger.WithFields(log.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"status": code,
		})
		if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
			entry = entry.WithField("request_id", rid)
		}
		if code >= http.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithError(err).Debug("request rejected")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, messageResponse{Message: msg})
		}
		if writeErr != nil {
			logger.WithError(writeErr).Warn("write error response")
		}
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}
