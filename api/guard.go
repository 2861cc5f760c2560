package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/domain"
)

const userIDKey = "taskhub.user_id"

// RequireAuth rejects requests without a valid bearer token before next
// runs, and stores the resolved user id on the context otherwise.
func RequireAuth(authn Authenticator, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerTokenFromHeader(c.Request().Header)
			if err != nil {
				stage(c, "auth")
				return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
			}
			userID, err := authn.Authenticate(token)
			if err != nil {
				stage(c, "auth")
				logger.WithError(err).WithField("path", c.Path()).Debug("token rejected")
				return err
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// userIDFrom returns the id stored by RequireAuth.
func userIDFrom(c echo.Context) (int64, error) {
	id, ok := c.Get(userIDKey).(int64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("%w: no user on request", domain.ErrUnauthenticated)
	}
	return id, nil
}
