package diary

import (
	"strconv"
	"strings"
	"time"

	"github.com/diarycardhq/diarycard/internal/calendarday"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/labstack/echo/v4"
)

type HTTPController struct {
	service *Service
}

func NewHTTPController(service *Service) *HTTPController {
	return &HTTPController{service: service}
}

func (d *HTTPController) Upsert(ctx core.Context) error {
	var req UpsertRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	entry, err := d.service.Upsert(core.GetSession(ctx).GetUserID(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entry)
}

func (d *HTTPController) GetByDate(ctx core.Context) error {
	date := calendarday.Today(time.Local)
	if v := ctx.QueryParam("date"); v != "" {
		parsed, err := calendarday.Parse(v)
		if err != nil {
			return echo.NewHTTPError(400, "invalid date").WithInternal(err)
		}
		date = parsed
	}

	entry, err := d.service.GetByDate(core.GetSession(ctx).GetUserID(), date)
	if err != nil {
		return err
	}
	// no entry for the day is a regular answer, not an error
	return ctx.JSON(200, entry)
}

func rangeFromQuery(ctx core.Context) (calendarday.Date, calendarday.Date, error) {
	start, err := calendarday.Parse(ctx.QueryParam("start"))
	if err != nil {
		return calendarday.Date{}, calendarday.Date{}, echo.NewHTTPError(400, "invalid start date").WithInternal(err)
	}
	end, err := calendarday.Parse(ctx.QueryParam("end"))
	if err != nil {
		return calendarday.Date{}, calendarday.Date{}, echo.NewHTTPError(400, "invalid end date").WithInternal(err)
	}
	if end.Before(start) {
		return calendarday.Date{}, calendarday.Date{}, echo.NewHTTPError(400, "end date must not be before start date")
	}
	return start, end, nil
}

func (d *HTTPController) GetRange(ctx core.Context) error {
	start, end, err := rangeFromQuery(ctx)
	if err != nil {
		return err
	}

	entries, err := d.service.GetRange(core.GetSession(ctx).GetUserID(), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entries)
}

func (d *HTTPController) GetRecent(ctx core.Context) error {
	limit := 7
	if v := ctx.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			return echo.NewHTTPError(400, "invalid limit")
		}
		limit = parsed
	}

	entries, err := d.service.GetRecent(core.GetSession(ctx).GetUserID(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entries)
}

func (d *HTTPController) EmotionTrends(ctx core.Context) error {
	start, end, err := rangeFromQuery(ctx)
	if err != nil {
		return err
	}

	// a comma separated subset of emotions, empty means all
	var emotions []models.Emotion
	if v := ctx.QueryParam("emotions"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			emotions = append(emotions, models.Emotion(strings.TrimSpace(raw)))
		}
	}

	points, err := d.service.EmotionTrends(core.GetSession(ctx).GetUserID(), start, end, emotions)
	if err != nil {
		return err
	}
	return ctx.JSON(200, points)
}

func (d *HTTPController) SkillsUsage(ctx core.Context) error {
	start, end, err := rangeFromQuery(ctx)
	if err != nil {
		return err
	}

	counts, err := d.service.SkillsUsage(core.GetSession(ctx).GetUserID(), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, counts)
}

func (d *HTTPController) UrgePatterns(ctx core.Context) error {
	start, end, err := rangeFromQuery(ctx)
	if err != nil {
		return err
	}

	points, err := d.service.UrgePatterns(core.GetSession(ctx).GetUserID(), start, end)
	if err != nil {
		return err
	}
	return ctx.JSON(200, points)
}

func (d *HTTPController) WeeklySummary(ctx core.Context) error {
	weekStart, err := calendarday.Parse(ctx.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(400, "invalid start date").WithInternal(err)
	}

	entries, err := d.service.WeeklySummary(core.GetSession(ctx).GetUserID(), weekStart)
	if err != nil {
		return err
	}
	return ctx.JSON(200, entries)
}

func (d *HTTPController) Delete(ctx core.Context) error {
	entryID, err := core.GetUUIDParam(ctx, "entryID")
	if err != nil {
		return echo.NewHTTPError(400, "invalid entry id").WithInternal(err)
	}

	if err := d.service.Delete(core.GetSession(ctx).GetUserID(), entryID); err != nil {
		return err
	}
	return ctx.NoContent(200)
}
