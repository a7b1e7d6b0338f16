package middleware

import (
	"net/http"

	"farmkart/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleを確認するガード。
// 出品はFARMERだけ、カート・チェックアウト・履歴はCONSUMERだけ。
func RoleGuard(required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			role, ok := rawRole.(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if model.Role(role) != required {
				return c.JSON(http.StatusForbidden, errorJSON(string(required)+" only"))
			}

			return next(c)
		}
	}
}
