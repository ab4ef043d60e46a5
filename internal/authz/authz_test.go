package authz_test

import (
	"net/http"
	"testing"

	"github.com/diarycardhq/diarycard/internal/authz"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func membership(orgID uuid.UUID, role models.Role) models.Membership {
	m := models.Membership{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		Role:           role,
	}
	m.ID = uuid.New()
	return m
}

func TestCanViewMember(t *testing.T) {
	orgID := uuid.New()
	otherOrgID := uuid.New()

	t.Run("should deny every pair spanning two organizations", func(t *testing.T) {
		for _, callerRole := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleUser} {
			for _, targetRole := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleUser} {
				caller := membership(orgID, callerRole)
				target := membership(otherOrgID, targetRole)

				err := authz.CanViewMember(caller, &target)
				assert.ErrorIs(t, err, authz.ErrTargetNotFound, "caller %s target %s", callerRole, targetRole)
			}
		}
	})

	t.Run("should deny when the target has no membership", func(t *testing.T) {
		caller := membership(orgID, models.RoleAdmin)
		assert.ErrorIs(t, authz.CanViewMember(caller, nil), authz.ErrTargetNotFound)
	})

	t.Run("manager reaches exactly their own reports", func(t *testing.T) {
		manager := membership(orgID, models.RoleManager)
		otherManager := membership(orgID, models.RoleManager)

		report := membership(orgID, models.RoleUser)
		report.ManagerID = &manager.ID

		assert.NoError(t, authz.CanViewMember(manager, &report))
		assert.ErrorIs(t, authz.CanViewMember(otherManager, &report), authz.ErrOutOfScope)

		unassigned := membership(orgID, models.RoleUser)
		assert.ErrorIs(t, authz.CanViewMember(manager, &unassigned), authz.ErrOutOfScope)
	})

	t.Run("manager reaches themselves", func(t *testing.T) {
		manager := membership(orgID, models.RoleManager)
		assert.NoError(t, authz.CanViewMember(manager, &manager))
	})

	t.Run("admin reaches every member of the organization", func(t *testing.T) {
		admin := membership(orgID, models.RoleAdmin)

		for _, targetRole := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleUser} {
			target := membership(orgID, targetRole)
			assert.NoError(t, authz.CanViewMember(admin, &target))
		}
	})

	t.Run("user reaches only themselves", func(t *testing.T) {
		user := membership(orgID, models.RoleUser)
		other := membership(orgID, models.RoleUser)

		assert.NoError(t, authz.CanViewMember(user, &user))
		assert.ErrorIs(t, authz.CanViewMember(user, &other), authz.ErrOutOfScope)
	})
}

func TestCollapse(t *testing.T) {
	orgID := uuid.New()

	t.Run("admins see the difference between missing and out of scope", func(t *testing.T) {
		admin := membership(orgID, models.RoleAdmin)

		httpErr, ok := authz.Collapse(authz.ErrTargetNotFound, admin).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)

		httpErr, ok = authz.Collapse(authz.ErrOutOfScope, admin).(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})

	t.Run("everyone else sees forbidden for both", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleManager, models.RoleUser} {
			caller := membership(orgID, role)

			for _, err := range []error{authz.ErrTargetNotFound, authz.ErrOutOfScope} {
				httpErr, ok := authz.Collapse(err, caller).(*echo.HTTPError)
				require.True(t, ok)
				assert.Equal(t, http.StatusForbidden, httpErr.Code)
			}
		}
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, authz.Collapse(nil, membership(orgID, models.RoleUser)))
	})
}
