package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/handler"
	"github.com/hamroengineering/hamro/internal/middleware"
	"github.com/hamroengineering/hamro/pkg/auth"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
)

// Handlers collects every HTTP handler for route registration
type Handlers struct {
	fx.In

	Auth         *handler.AuthHandler
	College      *handler.CollegeHandler
	Question     *handler.QuestionHandler
	MockTest     *handler.MockTestHandler
	Payment      *handler.PaymentHandler
	Notification *handler.NotificationHandler
	Resource     *handler.ResourceHandler
	Analytics    *handler.AnalyticsHandler
	Upload       *handler.UploadHandler
	WS           *handler.WSHandler
	Website      *handler.WebsiteHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, jwtManager *auth.JWTManager, blacklist auth.Blacklist) {
	// swag init writes docs/swagger.json; served outside the /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "hamro-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	requireAuth := middleware.AuthMiddleware(jwtManager, blacklist)
	optionalAuth := middleware.OptionalAuth(jwtManager, blacklist)

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/verify-otp", h.Auth.VerifyOTP)
			authGroup.POST("/resend-otp", h.Auth.ResendOTP)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
			authGroup.POST("/reset-password", h.Auth.ResetPassword)
		}

		// Public catalogue
		api.GET("/colleges", h.College.ListColleges)
		api.GET("/colleges/:id", h.College.GetCollege)
		api.GET("/programs", h.College.ListPrograms)
		api.GET("/programs/:id", h.College.GetProgram)
		api.GET("/exams", h.College.ListExams)
		api.GET("/exams/:id", h.College.GetExam)

		api.GET("/subjects", h.Question.ListSubjects)
		api.GET("/subjects/:id", h.Question.GetSubject)
		api.GET("/topics", h.Question.ListTopics)
		api.GET("/topics/:id", h.Question.GetTopic)

		api.GET("/mock-tests", h.MockTest.ListMockTests)
		api.GET("/mock-tests/:id", h.MockTest.GetMockTest)

		api.GET("/subscriptions/plans", h.Payment.ListPlans)
		api.GET("/subscriptions/plans/:id", h.Payment.GetPlan)
		api.GET("/payments/gateways", h.Payment.ListGateways)

		api.GET("/announcements", h.Notification.ListAnnouncements)
		api.GET("/announcements/:id", h.Notification.GetAnnouncement)
		api.GET("/achievements", h.Notification.ListAchievements)
		api.GET("/achievements/:id", h.Notification.GetAchievement)

		api.GET("/resources", h.Resource.ListResources)
		api.GET("/resources/universities", h.Resource.ListUniversities)
		api.GET("/resources/categories", h.Resource.ListCategories)
		api.GET("/resources/:id", h.Resource.GetResource)

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			// Account
			protected.POST("/auth/logout", h.Auth.Logout)
			protected.POST("/auth/change-password", h.Auth.ChangePassword)
			protected.GET("/auth/profile", h.Auth.GetProfile)
			protected.PUT("/auth/profile", h.Auth.UpdateProfile)
			protected.GET("/auth/student-profile", h.Auth.GetStudentProfile)
			protected.PUT("/auth/student-profile", h.Auth.UpdateStudentProfile)
			protected.POST("/auth/devices", h.Auth.RegisterDevice)

			// Question bank
			protected.GET("/questions", h.Question.ListQuestions)
			protected.GET("/questions/practice", h.Question.Practice)
			protected.GET("/questions/bookmarks", h.Question.ListBookmarks)
			protected.GET("/questions/:id", h.Question.GetQuestion)
			protected.POST("/questions/:id/bookmark", h.Question.ToggleBookmark)

			// Mock tests and attempts
			protected.GET("/mock-tests/:id/questions", h.MockTest.TestQuestions)
			protected.POST("/mock-tests/:id/start", h.MockTest.StartAttempt)
			protected.GET("/attempts", h.MockTest.ListAttempts)
			protected.GET("/attempts/:id", h.MockTest.GetAttempt)
			protected.POST("/attempts/:id/answers", h.MockTest.SubmitAnswer)
			protected.POST("/attempts/:id/submit", h.MockTest.SubmitAttempt)
			protected.POST("/attempts/:id/abandon", h.MockTest.AbandonAttempt)

			// Subscriptions and payments
			protected.POST("/subscriptions/subscribe", h.Payment.Subscribe)
			protected.POST("/subscriptions/pay-to-unlock", h.Payment.PayToUnlock)
			protected.GET("/subscriptions/me", h.Payment.MySubscription)
			protected.GET("/subscriptions", h.Payment.SubscriptionHistory)
			protected.POST("/subscriptions/:id/cancel", h.Payment.CancelSubscription)
			protected.POST("/payments/transactions", h.Payment.CreateTransaction)
			protected.GET("/payments/transactions", h.Payment.ListTransactions)
			protected.GET("/payments/transactions/:id", h.Payment.GetTransaction)
			protected.POST("/payments/refunds", h.Payment.RequestRefund)
			protected.GET("/payments/refunds", h.Payment.ListRefunds)

			// Notifications
			protected.GET("/notifications", h.Notification.ListNotifications)
			protected.GET("/notifications/unread-count", h.Notification.UnreadCount)
			protected.POST("/notifications/read-all", h.Notification.MarkAllRead)
			protected.GET("/notifications/preferences", h.Notification.GetPreferences)
			protected.PUT("/notifications/preferences", h.Notification.UpdatePreferences)
			protected.GET("/notifications/:id", h.Notification.GetNotification)
			protected.POST("/notifications/:id/read", h.Notification.MarkRead)
			protected.GET("/achievements/me", h.Notification.MyAchievements)

			// Resources
			protected.GET("/resources/:id/download", h.Resource.DownloadResource)

			// Analytics
			protected.GET("/analytics/student", h.Analytics.StudentAnalytics)
			protected.GET("/analytics/leaderboard", h.Analytics.Leaderboard)
			protected.GET("/analytics/subjects/:id", h.Analytics.SubjectAnalytics)
			protected.GET("/analytics/admin", middleware.RequireAdmin(), h.Analytics.AdminAnalytics)
		}

		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.POST("/colleges", h.College.CreateCollege)
			admin.PUT("/colleges/:id", h.College.UpdateCollege)
			admin.DELETE("/colleges/:id", h.College.DeleteCollege)
			admin.POST("/programs", h.College.CreateProgram)
			admin.PUT("/programs/:id", h.College.UpdateProgram)
			admin.DELETE("/programs/:id", h.College.DeleteProgram)
			admin.POST("/exams", h.College.CreateExam)
			admin.PUT("/exams/:id", h.College.UpdateExam)
			admin.DELETE("/exams/:id", h.College.DeleteExam)

			admin.POST("/subjects", h.Question.CreateSubject)
			admin.PUT("/subjects/:id", h.Question.UpdateSubject)
			admin.DELETE("/subjects/:id", h.Question.DeleteSubject)
			admin.POST("/topics", h.Question.CreateTopic)
			admin.PUT("/topics/:id", h.Question.UpdateTopic)
			admin.DELETE("/topics/:id", h.Question.DeleteTopic)
			admin.POST("/questions", h.Question.CreateQuestion)
			admin.POST("/questions/import", h.Question.ImportQuestions)
			admin.PUT("/questions/:id", h.Question.UpdateQuestion)
			admin.DELETE("/questions/:id", h.Question.DeleteQuestion)

			admin.POST("/mock-tests", h.MockTest.CreateMockTest)
			admin.PUT("/mock-tests/:id", h.MockTest.UpdateMockTest)
			admin.DELETE("/mock-tests/:id", h.MockTest.DeleteMockTest)
			admin.GET("/mock-tests/:id/questions", h.MockTest.AdminTestQuestions)
			admin.POST("/mock-tests/:id/questions", h.MockTest.AddQuestion)
			admin.DELETE("/mock-tests/:id/questions/:questionId", h.MockTest.RemoveQuestion)

			admin.POST("/subscriptions/plans", h.Payment.CreatePlan)
			admin.PUT("/subscriptions/plans/:id", h.Payment.UpdatePlan)
			admin.GET("/payments/transactions", h.Payment.AdminListTransactions)
			admin.PATCH("/payments/transactions/:id/status", h.Payment.UpdateTransactionStatus)
			admin.GET("/payments/refunds", h.Payment.AdminListRefunds)
			admin.PATCH("/payments/refunds/:id", h.Payment.ReviewRefund)

			admin.GET("/announcements", h.Notification.AdminListAnnouncements)
			admin.POST("/announcements", h.Notification.CreateAnnouncement)
			admin.PUT("/announcements/:id", h.Notification.UpdateAnnouncement)
			admin.POST("/announcements/:id/publish", h.Notification.PublishAnnouncement)

			admin.POST("/resources", h.Resource.CreateResource)
			admin.DELETE("/resources/:id", h.Resource.DeleteResource)
			admin.POST("/resources/universities", h.Resource.CreateUniversity)
			admin.POST("/resources/categories", h.Resource.CreateCategory)

			admin.POST("/upload", h.Upload.UploadFile)
			admin.POST("/upload/multiple", h.Upload.UploadMultiple)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", h.WS.HandleWebSocket)

	// ==================== Website ====================
	site := router.Group("/", optionalAuth)
	{
		site.GET("/", h.Website.Index)
		site.GET("/about", h.Website.About)
		site.GET("/features", h.Website.Features)
		site.GET("/contact", h.Website.Contact)
		site.POST("/contact", h.Website.SubmitContact)
		site.GET("/pricing", h.Website.Pricing)
		site.GET("/resources", h.Website.Resources)
		site.GET("/news", h.Website.News)
		site.GET("/dashboard", h.Website.Dashboard)
		site.GET("/mock-tests/:id", h.Website.MockTest)
		site.POST("/pay-to-unlock", h.Website.PayToUnlock)
	}
}
