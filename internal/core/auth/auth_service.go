// Package auth implements the email sign-in flow. A sign-in request mints a
// short lived single use token and mails a link; opening the link creates the
// user if needed and issues a session. This is also how the very first admin
// gets in before any invitation exists.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/database/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	tokenValidity   = 15 * time.Minute
	sessionValidity = 30 * 24 * time.Hour
)

func newLoginToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type Service struct {
	userRepository       core.UserRepository
	sessionRepository    core.SessionRepository
	loginTokenRepository core.LoginTokenRepository
	notifier             core.SignInNotifier
	publicURL            string
	now                  func() time.Time
}

func NewService(
	userRepository core.UserRepository,
	sessionRepository core.SessionRepository,
	loginTokenRepository core.LoginTokenRepository,
	notifier core.SignInNotifier,
	publicURL string,
) *Service {
	return &Service{
		userRepository:       userRepository,
		sessionRepository:    sessionRepository,
		loginTokenRepository: loginTokenRepository,
		notifier:             notifier,
		publicURL:            publicURL,
		now:                  time.Now,
	}
}

// RequestSignIn mails a sign-in link to the address. The response is the same
// whether or not a user with that address exists.
func (s *Service) RequestSignIn(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	token, err := newLoginToken()
	if err != nil {
		return echo.NewHTTPError(500, "could not generate sign-in token").WithInternal(err)
	}

	loginToken := models.LoginToken{
		Email:     email,
		Token:     token,
		ExpiresAt: s.now().Add(tokenValidity),
	}
	if err := s.loginTokenRepository.Create(nil, &loginToken); err != nil {
		return echo.NewHTTPError(500, "could not create sign-in token").WithInternal(err)
	}

	link := strings.TrimRight(s.publicURL, "/") + "/api/auth/callback/" + token
	if err := s.notifier.SendSignInLink(email, link); err != nil {
		return echo.NewHTTPError(500, "could not send sign-in mail").WithInternal(err)
	}
	return nil
}

// Result tells the controller where to redirect and which session cookie to
// set. SessionToken stays empty when no session was issued.
type Result struct {
	RedirectTo    string
	SessionToken  string
	SessionExpiry time.Time
}

// Complete resolves a sign-in link. Like invitation acceptance it never
// errors toward the browser; bad tokens land on a neutral page.
func (s *Service) Complete(token string) Result {
	appRoot := strings.TrimRight(s.publicURL, "/") + "/"
	invalidLanding := appRoot + "signin/invalid"

	loginToken, err := s.loginTokenRepository.FindByToken(token)
	if err != nil {
		return Result{RedirectTo: invalidLanding}
	}

	now := s.now()
	if !loginToken.Usable(now) {
		return Result{RedirectTo: invalidLanding}
	}

	var session models.Session
	err = s.userRepository.Transaction(func(tx core.DB) error {
		user, err := s.userRepository.EnsureByEmail(tx, loginToken.Email)
		if err != nil {
			return err
		}

		loginToken.ConsumedAt = &now
		if err := s.loginTokenRepository.Save(tx, &loginToken); err != nil {
			return err
		}

		session = models.Session{
			Token:     uuid.NewString(),
			UserID:    user.ID,
			ExpiresAt: now.Add(sessionValidity),
		}
		return s.sessionRepository.Create(tx, &session)
	})
	if err != nil {
		slog.Error("could not complete sign-in", "err", err)
		return Result{RedirectTo: invalidLanding}
	}

	return Result{
		RedirectTo:    appRoot,
		SessionToken:  session.Token,
		SessionExpiry: session.ExpiresAt,
	}
}
