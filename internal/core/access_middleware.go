package core

import (
	"github.com/diarycardhq/diarycard/internal/accesscontrol"

	"github.com/labstack/echo/v4"
)

func AccessControlMiddleware(obj accesscontrol.Object, act accesscontrol.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// get the rbac
			rbac := GetRBAC(c)

			// get the user
			user := GetSession(c).GetUserID()

			allowed, err := rbac.IsAllowed(user.String(), obj, act)
			if err != nil {
				return echo.NewHTTPError(500, "could not determine if the user has access").WithInternal(err)
			}

			// check if the user has the required role
			if !allowed {
				return echo.NewHTTPError(403, "forbidden")
			}

			return next(c)
		}
	}
}
