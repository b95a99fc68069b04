package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"duet-api/core/config"
	"duet-api/core/constants"
	"duet-api/core/controller"
	"duet-api/core/errors"
	"duet-api/core/utils"
)

type Middleware struct {
	base controller.BaseController
}

func NewMiddleware() *Middleware {
	return &Middleware{base: controller.NewBaseController()}
}

// AuthMiddleware validates the Bearer token and stores the parsed claims in
// the request context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return m.base.Unauthorized(errors.ErrMissingAuthorizationHeader, "Missing authorization header")
			}

			if !strings.HasPrefix(header, "Bearer ") {
				return m.base.Unauthorized(errors.ErrInvalidTokenFormat, "Authorization header must be a Bearer token")
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			cfg := config.Get()
			claims, appErr := utils.ValidateToken(tokenString, cfg.Auth.JWTSecret)
			if appErr != nil {
				return m.base.Unauthorized(appErr.Code, appErr.Message)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// InternalMiddleware guards the scheduler-trigger endpoints with a shared
// key. When no key is configured the endpoints stay closed.
func (m *Middleware) InternalMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cfg := config.Get()
			key := c.Request().Header.Get("X-Internal-Api-Key")
			if cfg.Auth.InternalAPIKey == "" || key != cfg.Auth.InternalAPIKey {
				return m.base.Forbidden(errors.ErrForbidden, "Internal endpoints require a valid api key")
			}
			return next(c)
		}
	}
}
