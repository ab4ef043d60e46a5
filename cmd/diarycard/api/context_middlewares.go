package api

import (
	"strings"
	"time"

	"github.com/diarycardhq/diarycard/internal/accesscontrol"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const sessionCookieName = "session_token"

type authSession struct {
	userID uuid.UUID
	email  string
}

func (a authSession) GetUserID() uuid.UUID {
	return a.userID
}

func (a authSession) GetEmail() string {
	return a.email
}

// sessionMiddleware resolves the bearer credential (cookie or Authorization
// header) to an authenticated user. Everything behind it can rely on
// core.GetSession.
func sessionMiddleware(sessionRepository core.SessionRepository) core.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c core.Context) error {
			token := ""
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				token = cookie.Value
			}
			if auth := c.Request().Header.Get("Authorization"); auth != "" {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
			if token == "" {
				return echo.NewHTTPError(401, "no session token provided")
			}

			session, err := sessionRepository.FindByToken(token)
			if err != nil {
				return echo.NewHTTPError(401, "invalid session").WithInternal(err)
			}
			if session.Expired(time.Now()) {
				return echo.NewHTTPError(401, "session expired")
			}

			core.SetSession(c, authSession{userID: session.UserID, email: session.User.Email})
			return next(c)
		}
	}
}

func casbinRoleName(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return accesscontrol.RoleAdmin
	case models.RoleManager:
		return accesscontrol.RoleManager
	default:
		return accesscontrol.RoleUser
	}
}

// orgMiddleware resolves the deployment's organization, the caller's
// membership in it and the casbin domain RBAC. The membership is resolved
// fresh per request since roles and manager assignment can change at any
// time. A caller without a membership gets the default USER one, that is the
// first-sign-in behavior.
func orgMiddleware(orgRepository core.OrganizationRepository, membershipRepository core.MembershipRepository, rbacProvider accesscontrol.RBACProvider, required bool) core.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c core.Context) error {
			organization, err := orgRepository.ReadAny()
			if err != nil {
				if required {
					return echo.NewHTTPError(404, "no organization exists").WithInternal(err)
				}
				return next(c)
			}

			session := core.GetSession(c)
			membership, err := membershipRepository.EnsureDefault(nil, organization.ID, session.GetUserID())
			if err != nil {
				return echo.NewHTTPError(500, "could not resolve membership").WithInternal(err)
			}

			rbac := rbacProvider.GetDomainRBAC(organization.ID.String())
			// self-heal the casbin role for memberships created outside the
			// invitation flow
			if !rbac.HasAccess(session.GetUserID().String()) {
				if err := rbac.GrantRole(session.GetUserID().String(), casbinRoleName(membership.Role)); err != nil {
					return echo.NewHTTPError(500, "could not grant role").WithInternal(err)
				}
			}

			core.SetOrg(c, organization)
			core.SetMembership(c, membership)
			core.SetRBAC(c, rbac)
			return next(c)
		}
	}
}
