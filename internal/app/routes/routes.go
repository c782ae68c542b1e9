package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnet/internal/app/controllers"
	"github.com/yigit/alumnet/internal/middleware"
	"github.com/yigit/alumnet/internal/pkg/websocket"
)

// Controllers groups every HTTP handler the router mounts.
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Connection   *controllers.ConnectionController
	Post         *controllers.PostController
	Media        *controllers.MediaController
	Notification *controllers.NotificationController
	Admin        *controllers.AdminController
	Points       *controllers.PointsController
	Event        *controllers.EventController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	ws *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/ping", c.Health.Ping)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", c.Auth.Signup)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/forgot-password", c.Auth.ForgotPassword)
		auth.POST("/reset-password-with-otp", c.Auth.ResetPasswordWithOTP)
	}

	// Browsers pass the token as a query parameter on the upgrade.
	v1.GET("/ws", authMiddleware.WebsocketAuth(), ws.HandleConnection)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.POST("/auth/reset-password", c.Auth.ChangePassword)

	users := authenticated.Group("/users")
	{
		users.GET("/me", c.User.GetMe)
		users.PUT("/me", c.User.UpdateMe)
		users.GET("/me/posts", c.User.MyPosts)
		users.GET("/me/activity", c.User.Activity)
		users.GET("/award-eligible", c.User.AwardEligible)
		users.GET("/:id", c.User.GetProfile)
	}

	connect := authenticated.Group("/connect")
	{
		connect.POST("/request", c.Connection.SendRequest)
		connect.POST("/accept", c.Connection.Accept)
		connect.POST("/reject", c.Connection.Reject)
		connect.POST("/cancel", c.Connection.Cancel)
		connect.GET("/list", c.Connection.ListMine)
		connect.GET("/list/:id", c.Connection.ListOf)
		connect.GET("/pending", c.Connection.Pending)
		connect.GET("/sent", c.Connection.Sent)
		connect.GET("/suggestions", c.Connection.Suggestions)
		connect.GET("/search", c.Connection.Search)
	}

	posts := authenticated.Group("/posts")
	{
		posts.GET("", c.Post.List)
		posts.POST("", c.Post.Create)
		posts.PUT("/:id", c.Post.Edit)
		posts.DELETE("/:id", c.Post.Delete)
		posts.PATCH("/:id/react", c.Post.React)

		posts.POST("/:id/comment", c.Post.AddComment)
		posts.PUT("/:id/comment/:commentId", c.Post.EditComment)
		posts.DELETE("/:id/comment/:commentId", c.Post.DeleteComment)
		posts.PATCH("/:id/comment/:commentId/react", c.Post.ReactComment)

		posts.POST("/:id/comment/:commentId/reply", c.Post.AddReply)
		posts.PUT("/:id/comment/:commentId/reply/:replyId", c.Post.EditReply)
		posts.DELETE("/:id/comment/:commentId/reply/:replyId", c.Post.DeleteReply)
		posts.PATCH("/:id/comment/:commentId/reply/:replyId/react", c.Post.ReactReply)
	}

	media := authenticated.Group("/media")
	{
		media.POST("/upload", c.Media.Upload)
		media.POST("/presign", c.Media.Presign)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", c.Notification.List)
		notifications.PATCH("/read-all", c.Notification.MarkAllRead)
		notifications.PATCH("/:id/read", c.Notification.MarkRead)
	}

	authenticated.GET("/events", c.Event.List)

	// Points config is readable by everyone; the ledger and rollover are
	// owned by the main admin.
	authenticated.GET("/admin/points/config", c.Points.GetConfig)

	mainAdmin := authenticated.Group("/admin")
	mainAdmin.Use(authMiddleware.MainAdminRequired())
	{
		mainAdmin.POST("/points/config", c.Points.UpdateConfig)
		mainAdmin.POST("/points/manual-award", c.Points.ManualAward)
		mainAdmin.POST("/points/sync-points", c.Points.SyncPoints)
		mainAdmin.POST("/points/trigger-rollover", c.Points.TriggerRollover)
		mainAdmin.POST("/rollover/config", c.Points.ConfigureRollover)
		mainAdmin.POST("/year-end-rollover", c.Points.YearEndRollover)
	}

	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.AdminRequired())
	{
		admin.GET("/pending-users", c.Admin.PendingUsers)
		admin.GET("/all-users", c.Admin.AllUsers)
		admin.GET("/admins", c.Admin.Admins)
		admin.PUT("/approve/:id", c.Admin.Approve)
		admin.PUT("/make-admin/:id", c.Admin.MakeAdmin)
		admin.PUT("/remove-admin/:id", c.Admin.RemoveAdmin)
		admin.DELETE("/delete-user/:id", c.Admin.DeleteUser)
		admin.GET("/export-alumni", c.Admin.ExportAlumni)
		admin.GET("/leaderboard", c.Points.Leaderboard)
		admin.GET("/leaderboard/last-year", c.Points.LastYearLeaderboard)
		admin.POST("/events", c.Event.Create)
	}
}
