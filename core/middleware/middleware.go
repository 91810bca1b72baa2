package middleware

import (
	"go-meeting-sync/core/constants"
	"go-meeting-sync/core/controller"
	"go-meeting-sync/core/errors"
	"go-meeting-sync/core/logger"
	"go-meeting-sync/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	controller.BaseController
}

func NewMiddleware() *Middleware {
	return &Middleware{BaseController: controller.NewBaseController()}
}

// AuthMiddleware validates the bearer token and stores its claims on the
// context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := utils.GetTokenFromHeader(c)
			if err != nil {
				return m.Unauthorized(errors.ErrMissingAuthorizationHeader, "Missing or malformed authorization header")
			}

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:ValidateAndParseToken:Error", "error", err)
				return m.Unauthorized(errors.ErrInvalidTokenFormat, "Invalid or expired token")
			}

			if claims.Scope != constants.ScopeTokenAccess {
				return m.Unauthorized(errors.ErrUnauthorized, "Token scope not allowed")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
