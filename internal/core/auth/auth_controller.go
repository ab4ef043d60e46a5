package auth

import (
	"net/http"

	"github.com/diarycardhq/diarycard/internal/core"

	"github.com/labstack/echo/v4"
)

type SignInRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type HTTPController struct {
	service *Service
}

func NewHTTPController(service *Service) *HTTPController {
	return &HTTPController{service: service}
}

func (a *HTTPController) RequestSignIn(ctx core.Context) error {
	var req SignInRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := core.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, err.Error())
	}

	if err := a.service.RequestSignIn(req.Email); err != nil {
		return err
	}
	return ctx.JSON(200, map[string]string{"status": "sent"})
}

func (a *HTTPController) Callback(ctx core.Context) error {
	result := a.service.Complete(core.GetParam(ctx, "token"))

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
