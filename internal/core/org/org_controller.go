package org

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"

	"github.com/labstack/echo/v4"
)

type HTTPController struct {
	service *Service
}

func NewHTTPController(service *Service) *HTTPController {
	return &HTTPController{service: service}
}

// parseRange reads the start/end query parameters as calendar days. Without
// parameters the range defaults to the last 30 days including today.
func parseRange(ctx core.Context) (calendarday.Date, calendarday.Date, error) {
	today := calendarday.Today(time.Local)
	start := today.AddDays(-29)
	end := today

	if v := ctx.QueryParam("start"); v != "" {
		parsed, err := calendarday.Parse(v)
		if err != nil {
			return start, end, echo.NewHTTPError(400, "invalid start date").WithInternal(err)
		}
		start = parsed
	}
	if v := ctx.QueryParam("end"); v != "" {
		parsed, err := calendarday.Parse(v)
		if err != nil {
			return start, end, echo.NewHTTPError(400, "invalid end date").WithInternal(err)
		}
		end = parsed
	}
	if end.Before(start) {
		return start, end, echo.NewHTTPError(400, "end date must not be before start date")
	}
	return start, end, nil
}

func (o *HTTPController) Create(ctx core.Context) error {
	var req CreateRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	organization, _, err := o.service.CreateOrganization(req, core.GetSession(ctx).GetUserID())
	if err != nil {
		return err
	}
	return ctx.JSON(200, organization)
}

func (o *HTTPController) State(ctx core.Context) error {
	if !core.HasOrg(ctx) {
		return ctx.JSON(200, StateResponse{})
	}

	organization := core.GetOrg(ctx)
	resp := StateResponse{Organization: &organization}
	if membership, err := core.MaybeGetMembership(ctx); err == nil {
		resp.Role = membership.Role
		resp.MembershipID = &membership.ID
	}
	return ctx.JSON(200, resp)
}

func (o *HTTPController) ListMembers(ctx core.Context) error {
	members, err := o.service.ListMembers(core.GetOrg(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(200, members)
}

func (o *HTTPController) SetRole(ctx core.Context) error {
	membershipID, err := core.GetUUIDParam(ctx, "membershipID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid membership id").WithInternal(err)
	}

	var req SetRoleRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	member, err := o.service.SetRole(core.GetOrg(ctx), membershipID, req.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}

func (o *HTTPController) AssignManager(ctx core.Context) error {
	membershipID, err := core.GetUUIDParam(ctx, "membershipID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid membership id").WithInternal(err)
	}

	var req AssignManagerRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	member, err := o.service.AssignManager(core.GetOrg(ctx), membershipID, req.ManagerID)
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}

func (o *HTTPController) AssignByEmail(ctx core.Context) error {
	var req AssignByEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	resp, err := o.service.AssignByEmail(core.GetOrg(ctx), req)
	if err != nil {
		return err
	}
	return ctx.JSON(200, resp)
}

func (o *HTTPController) ListInvites(ctx core.Context) error {
	invites, err := o.service.ListInvites(core.GetOrg(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(200, invites)
}

func (o *HTTPController) ResendInvite(ctx core.Context) error {
	inviteID, err := core.GetUUIDParam(ctx, "inviteID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid invitation id").WithInternal(err)
	}

	resp, err := o.service.ResendInvite(core.GetOrg(ctx), inviteID)
	if err != nil {
		return err
	}
	return ctx.JSON(200, resp)
}

func (o *HTTPController) RevokeInvite(ctx core.Context) error {
	inviteID, err := core.GetUUIDParam(ctx, "inviteID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid invitation id").WithInternal(err)
	}

	if err := o.service.RevokeInvite(core.GetOrg(ctx), inviteID); err != nil {
		return err
	}
	return ctx.NoContent(200)
}

func (o *HTTPController) ConsumeInvite(ctx core.Context) error {
	var req ConsumeInviteRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	session := core.GetSession(ctx)
	membership, err := o.service.ConsumeInvite(req.Token, session.GetUserID(), session.GetEmail())
	if err != nil {
		return err
	}
	return ctx.JSON(200, memberToDTO(membership))
}

// AcceptInvite is the unauthenticated magic-link entry point. It always
// redirects and never exposes invitation internals in the response body.
func (o *HTTPController) AcceptInvite(ctx core.Context) error {
	result := o.service.AcceptInvite(core.GetParam(ctx, "token"))

	if result.SessionToken != "" {
		ctx.SetCookie(&http.Cookie{
			Name:     "session_token",
			Value:    result.SessionToken,
			Expires:  result.SessionExpiry,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctx.Redirect(302, result.RedirectTo)
}

func (o *HTTPController) ManagerUsers(ctx core.Context) error {
	members, err := o.service.ManagerUsers(core.GetOrg(ctx), core.GetMembership(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(200, members)
}

func (o *HTTPController) ManagerSummary(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	rows, err := o.service.ManagerSummary(core.GetOrg(ctx), core.GetMembership(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, rows)
}

func (o *HTTPController) AdminUserSummary(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	rows, err := o.service.AdminUserSummary(core.GetOrg(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, rows)
}

func (o *HTTPController) AdminManagerSummary(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	rows, err := o.service.AdminManagerSummary(core.GetOrg(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, rows)
}

func (o *HTTPController) AdminManagerUsers(ctx core.Context) error {
	managerID, err := core.GetUUIDParam(ctx, "membershipID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid membership id").WithInternal(err)
	}
	members, err := o.service.AdminManagerUsers(core.GetOrg(ctx), managerID)
	if err != nil {
		return err
	}
	return ctx.JSON(200, members)
}

func (o *HTTPController) AdminManagerSummaryFor(ctx core.Context) error {
	managerID, err := core.GetUUIDParam(ctx, "membershipID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid membership id").WithInternal(err)
	}
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	rows, err := o.service.AdminManagerSummaryFor(core.GetOrg(ctx), managerID, start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, rows)
}

func (o *HTTPController) UserEntriesAndLast(ctx core.Context) error {
	targetUserID, err := core.GetUUIDParam(ctx, "userID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid user id").WithInternal(err)
	}
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	resp, err := o.service.UserEntriesAndLast(core.GetMembership(ctx), targetUserID, start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, resp)
}

func (o *HTTPController) UserRecentEntries(ctx core.Context) error {
	targetUserID, err := core.GetUUIDParam(ctx, "userID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid user id").WithInternal(err)
	}

	limit := 7
	if v := ctx.QueryParam("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			return echo.NewHTTPError(400, "invalid limit")
		}
	}

	entries, err := o.service.UserRecentEntries(core.GetMembership(ctx), targetUserID, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entries)
}

func (o *HTTPController) UserEntryByID(ctx core.Context) error {
	entryID, err := core.GetUUIDParam(ctx, "entryID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid entry id").WithInternal(err)
	}
	entry, err := o.service.UserEntryByID(core.GetMembership(ctx), entryID)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entry)
}

func (o *HTTPController) AdminTrendsEmotions(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	averages, err := o.service.AdminTrendsEmotions(core.GetOrg(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, averages)
}

func (o *HTTPController) AdminTrendsSkills(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	counts, err := o.service.AdminTrendsSkills(core.GetOrg(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, counts)
}

func (o *HTTPController) ManagerTrendsEmotions(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	averages, err := o.service.ManagerTrendsEmotions(core.GetOrg(ctx), core.GetMembership(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, averages)
}

func (o *HTTPController) ManagerTrendsSkills(ctx core.Context) error {
	start, end, err := parseRange(ctx)
	if err != nil {
		return err
	}
	counts, err := o.service.ManagerTrendsSkills(core.GetOrg(ctx), core.GetMembership(ctx), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, counts)
}
