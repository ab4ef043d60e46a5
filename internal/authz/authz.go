// Package authz decides whether one member of an organization may see
// another member's data. It is deliberately free of transport and storage
// concerns; callers load the memberships and pass them in.
package authz

import (
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var (
	// ErrTargetNotFound means there is no membership for the target in the
	// caller's organization.
	ErrTargetNotFound = errors.New("target membership not found")
	// ErrOutOfScope means the target exists but the caller's role does not
	// reach it.
	ErrOutOfScope = errors.New("target membership out of scope")
)

// CanViewMember checks access in two steps: first that the target
// membership exists inside the caller's organization, then that the
// caller's role covers it. Admins reach every member, managers reach
// themselves and their direct reports, users only themselves.
//
// target may be nil when the lookup found nothing.
func CanViewMember(caller models.Membership, target *models.Membership) error {
	if target == nil || target.OrganizationID != caller.OrganizationID {
		return ErrTargetNotFound
	}

	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleManager:
		if target.ID == caller.ID {
			return nil
		}
		if target.ManagerID != nil && *target.ManagerID == caller.ID {
			return nil
		}
		return ErrOutOfScope
	default:
		if target.ID == caller.ID {
			return nil
		}
		return ErrOutOfScope
	}
}

// Collapse maps an authorization error onto an HTTP error. Admins get the
// honest distinction between a missing member and one they cannot touch.
// Everyone else gets forbidden for both, so probing member ids cannot be
// used to enumerate the organization.
func Collapse(err error, caller models.Membership) error {
	if err == nil {
		return nil
	}
	if caller.Role == models.RoleAdmin {
		if errors.Is(err, ErrTargetNotFound) {
			return echo.NewHTTPError(404, "member not found").WithInternal(err)
		}
		return echo.NewHTTPError(403, "forbidden").WithInternal(err)
	}
	return echo.NewHTTPError(403, "forbidden").WithInternal(err)
}
