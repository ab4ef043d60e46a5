package api

import (
	"log/slog"
	"os"

	"github.com/diarycardhq/diarycard/internal/accesscontrol"
	"github.com/diarycardhq/diarycard/internal/core"
	"github.com/diarycardhq/diarycard/internal/core/auth"
	"github.com/diarycardhq/diarycard/internal/core/diary"
	"github.com/diarycardhq/diarycard/internal/core/org"
	"github.com/diarycardhq/diarycard/internal/core/skills"
	"github.com/diarycardhq/diarycard/internal/database/repositories"
	"github.com/diarycardhq/diarycard/internal/echohttp"
	"github.com/diarycardhq/diarycard/internal/mail"

	"github.com/labstack/echo/v4"
)

func whoami(c echo.Context) error {
	return c.JSON(200, map[string]string{
		"userId": core.GetSession(c).GetUserID().String(),
	})
}

func health(c echo.Context) error {
	return c.String(200, "ok")
}

func publicURL() string {
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		return v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func Start(db core.DB) {
	casbinRBACProvider, err := accesscontrol.NewCasbinRBACProvider(db)
	if err != nil {
		panic(err)
	}

	// init all repositories using the provided database
	orgRepository := repositories.NewOrgRepository(db)
	userRepository := repositories.NewUserRepository(db)
	membershipRepository := repositories.NewMembershipRepository(db)
	invitationRepository := repositories.NewInvitationRepository(db)
	sessionRepository := repositories.NewSessionRepository(db)
	diaryRepository := repositories.NewDiaryEntryRepository(db)
	skillRepository := repositories.NewSkillRepository(db)
	loginTokenRepository := repositories.NewLoginTokenRepository(db)

	if err := skillRepository.SeedCatalog(skills.Catalog()); err != nil {
		slog.Warn("could not seed skill catalog", "err", err)
	}

	notifier := mail.NewNotifier(mail.ConfigFromEnv())

	orgService := org.NewService(
		orgRepository,
		userRepository,
		membershipRepository,
		invitationRepository,
		sessionRepository,
		diaryRepository,
		notifier,
		casbinRBACProvider,
		publicURL(),
	)
	diaryService := diary.NewService(diaryRepository, skillRepository)
	authService := auth.NewService(userRepository, sessionRepository, loginTokenRepository, notifier, publicURL())

	authController := auth.NewHTTPController(authService)
	orgController := org.NewHTTPController(orgService)
	diaryController := diary.NewHTTPController(diaryService)
	skillsController := skills.NewHTTPController(skillRepository)

	server := echohttp.Server()

	apiRouter := server.Group("/api")
	apiRouter.GET("/health/", health)
	// unauthenticated magic-link entry points, always redirect
	apiRouter.GET("/invite/accept/:token", orgController.AcceptInvite)
	apiRouter.POST("/auth/signin/", authController.RequestSignIn)
	apiRouter.GET("/auth/callback/:token", authController.Callback)

	apiRouter.GET("/skills/", skillsController.GetAll)
	apiRouter.GET("/skills/:module/", skillsController.GetByModule)

	// everything below this line is protected by the session middleware
	sessionRouter := apiRouter.Group("", sessionMiddleware(sessionRepository))
	sessionRouter.GET("/whoami/", whoami)

	sessionRouter.POST("/organizations/", orgController.Create)
	sessionRouter.GET("/organizations/state/", orgController.State,
		orgMiddleware(orgRepository, membershipRepository, casbinRBACProvider, false))
	sessionRouter.POST("/invitations/consume/", orgController.ConsumeInvite)

	orgRouter := sessionRouter.Group("/organizations/current",
		orgMiddleware(orgRepository, membershipRepository, casbinRBACProvider, true))

	orgRouter.GET("/members/", orgController.ListMembers,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.POST("/members/", orgController.AssignByEmail,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionCreate))
	orgRouter.PUT("/members/:membershipID/role/", orgController.SetRole,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionUpdate))
	orgRouter.PUT("/members/:membershipID/manager/", orgController.AssignManager,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionUpdate))

	orgRouter.GET("/invitations/", orgController.ListInvites,
		core.AccessControlMiddleware(accesscontrol.ObjectInvitation, accesscontrol.ActionRead))
	orgRouter.POST("/invitations/:inviteID/resend/", orgController.ResendInvite,
		core.AccessControlMiddleware(accesscontrol.ObjectInvitation, accesscontrol.ActionUpdate))
	orgRouter.DELETE("/invitations/:inviteID/", orgController.RevokeInvite,
		core.AccessControlMiddleware(accesscontrol.ObjectInvitation, accesscontrol.ActionDelete))

	orgRouter.GET("/manager/users/", orgController.ManagerUsers,
		core.AccessControlMiddleware(accesscontrol.ObjectReports, accesscontrol.ActionRead))
	orgRouter.GET("/manager/summary/", orgController.ManagerSummary,
		core.AccessControlMiddleware(accesscontrol.ObjectReports, accesscontrol.ActionRead))
	orgRouter.GET("/manager/trends/emotions/", orgController.ManagerTrendsEmotions,
		core.AccessControlMiddleware(accesscontrol.ObjectReports, accesscontrol.ActionRead))
	orgRouter.GET("/manager/trends/skills/", orgController.ManagerTrendsSkills,
		core.AccessControlMiddleware(accesscontrol.ObjectReports, accesscontrol.ActionRead))

	orgRouter.GET("/admin/users/summary/", orgController.AdminUserSummary,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.GET("/admin/managers/summary/", orgController.AdminManagerSummary,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.GET("/admin/managers/:membershipID/users/", orgController.AdminManagerUsers,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.GET("/admin/managers/:membershipID/summary/", orgController.AdminManagerSummaryFor,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.GET("/admin/trends/emotions/", orgController.AdminTrendsEmotions,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))
	orgRouter.GET("/admin/trends/skills/", orgController.AdminTrendsSkills,
		core.AccessControlMiddleware(accesscontrol.ObjectMembers, accesscontrol.ActionRead))

	// drill-down routes re-validate the target against the caller's scope
	// themselves, any member may call them
	orgRouter.GET("/users/:userID/entries/", orgController.UserEntriesAndLast)
	orgRouter.GET("/users/:userID/entries/recent/", orgController.UserRecentEntries)
	orgRouter.GET("/entries/:entryID/", orgController.UserEntryByID)

	diaryRouter := orgRouter.Group("/diary")
	diaryRouter.PUT("/", diaryController.Upsert,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionUpdate))
	diaryRouter.GET("/", diaryController.GetByDate,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/range/", diaryController.GetRange,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/recent/", diaryController.GetRecent,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/trends/emotions/", diaryController.EmotionTrends,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/trends/skills/", diaryController.SkillsUsage,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/urges/", diaryController.UrgePatterns,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.GET("/week/", diaryController.WeeklySummary,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionRead))
	diaryRouter.DELETE("/:entryID/", diaryController.Delete,
		core.AccessControlMiddleware(accesscontrol.ObjectDiary, accesscontrol.ActionDelete))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Error("server stopped", "err", server.Start(":"+port))
}
