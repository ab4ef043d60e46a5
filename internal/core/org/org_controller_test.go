package org_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/core/org"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	userID uuid.UUID
	email  string
}

func (s stubSession) GetUserID() uuid.UUID { return s.userID }
func (s stubSession) GetEmail() string     { return s.email }

func newRequestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAcceptInviteEndpoint(t *testing.T) {
	t.Run("a valid link signs the user in and redirects to the app", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)
		invitation := pendingInvite(env, "fresh@example.com", models.RoleUser, nil)

		ctx, rec := newRequestContext(http.MethodGet, "/api/invite/accept/"+invitation.Token, "")
		ctx.SetParamNames("token")
		ctx.SetParamValues(invitation.Token)

		require.NoError(t, controller.AcceptInvite(ctx))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/", rec.Header().Get(echo.HeaderLocation))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session_token", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("an unknown token redirects to the invalid landing page without a cookie", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)

		ctx, rec := newRequestContext(http.MethodGet, "/api/invite/accept/nope", "")
		ctx.SetParamNames("token")
		ctx.SetParamValues("nope")

		require.NoError(t, controller.AcceptInvite(ctx))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/invite/invalid", rec.Header().Get(echo.HeaderLocation))
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestConsumeInviteEndpoint(t *testing.T) {
	t.Run("consuming with the signed-in identity returns the new membership", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)
		user := env.users.addUser("invitee@example.com")
		invitation := pendingInvite(env, "invitee@example.com", models.RoleUser, nil)

		ctx, rec := newRequestContext(http.MethodPost, "/api/invitations/consume/",
			`{"token":"`+invitation.Token+`"}`)
		core.SetSession(ctx, stubSession{userID: user.ID, email: user.Email})

		require.NoError(t, controller.ConsumeInvite(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), user.ID.String())
	})

	t.Run("a missing token is a validation error", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)

		ctx, _ := newRequestContext(http.MethodPost, "/api/invitations/consume/", `{}`)
		core.SetSession(ctx, stubSession{userID: uuid.New(), email: "x@example.com"})

		err := controller.ConsumeInvite(ctx)
		assert.Equal(t, 400, httpCode(t, err))
	})
}

func TestReportRangeValidation(t *testing.T) {
	t.Run("an end before the start is rejected", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)
		manager := env.memberships.add(env.organization.ID, uuid.New(), models.RoleManager, nil)

		ctx, _ := newRequestContext(http.MethodGet,
			"/api/organizations/current/manager/summary/?start=2024-06-10&end=2024-06-01", "")
		core.SetOrg(ctx, env.organization)
		core.SetMembership(ctx, manager)

		err := controller.ManagerSummary(ctx)
		assert.Equal(t, 400, httpCode(t, err))
	})

	t.Run("a malformed start date is rejected", func(t *testing.T) {
		env := newTestEnv()
		controller := org.NewHTTPController(env.service)
		manager := env.memberships.add(env.organization.ID, uuid.New(), models.RoleManager, nil)

		ctx, _ := newRequestContext(http.MethodGet,
			"/api/organizations/current/manager/summary/?start=June-10", "")
		core.SetOrg(ctx, env.organization)
		core.SetMembership(ctx, manager)

		err := controller.ManagerSummary(ctx)
		assert.Equal(t, 400, httpCode(t, err))
	})
}
