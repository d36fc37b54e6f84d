package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salonpro-crm/config"
	"salonpro-crm/controllers"
	"salonpro-crm/logger"
	"salonpro-crm/metrics"
	"salonpro-crm/utils"
)

// SetupRouter wires every HTTP route. gatherer may be nil to skip /metrics.
func SetupRouter(settings *config.Settings, log *logger.Logger, rec metrics.Recorder, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := settings.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(log, rec))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	public := r.Group("/public")
	{
		public.GET("/salons", controllers.ListPublicSalons)
		public.GET("/salons/:slug", controllers.GetPublicSalon)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.GET("/me", utils.AuthMiddleware(), controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
			clients.GET("/:id/score", controllers.GetClientScore)
			clients.POST("/:id/photo", controllers.UploadClientPhoto)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id", controllers.UpdateAppointment)
			appointments.PUT("/:id/status", controllers.UpdateAppointmentStatus)
			appointments.PUT("/:id/move", controllers.MoveAppointment)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		api.GET("/calendar", controllers.GetCalendar)
		api.GET("/realtime/stream", controllers.StreamChanges)

		services := api.Group("/services")
		{
			services.POST("", controllers.CreateService)
			services.GET("", controllers.GetServices)
			services.GET("/:id", controllers.GetService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", controllers.CreateInvoice)
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.PUT("/:id", controllers.UpdateInvoice)
			invoices.DELETE("/:id", controllers.DeleteInvoice)
			invoices.POST("/:id/email", controllers.EmailInvoice)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", controllers.CreateTask)
			tasks.GET("", controllers.GetTasks)
			tasks.PUT("/:id", controllers.UpdateTask)
			tasks.PUT("/:id/complete", controllers.CompleteTask)
			tasks.DELETE("/:id", controllers.DeleteTask)
		}

		chat := api.Group("/chat")
		{
			chat.GET("", controllers.GetMessages)
			chat.POST("", controllers.PostMessage)
		}

		reminders := api.Group("/reminders")
		{
			reminders.GET("/templates", controllers.GetReminderTemplates)
			reminders.GET("/templates/:id", controllers.GetReminderTemplate)
			reminders.GET("/logs", controllers.GetReminderLogs)

			owner := reminders.Group("", controllers.RequireOwner())
			owner.POST("/templates", controllers.CreateReminderTemplate)
			owner.PUT("/templates/:id", controllers.UpdateReminderTemplate)
			owner.DELETE("/templates/:id", controllers.DeleteReminderTemplate)
			owner.POST("/run", controllers.RunReminders)
		}

		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetReportAnalytics)
		api.GET("/reports/clients", reportController.GetClientReport)
		api.GET("/dashboard", controllers.GetDashboardOverview)

		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.GET("/reminders", controllers.GetReminderSettings)
			profile.GET("/web", controllers.GetWebConfig)

			owner := profile.Group("", controllers.RequireOwner())
			owner.PUT("/hours", controllers.UpdateWorkingHours)
			owner.PUT("/notifications", controllers.UpdateNotificationSettings)
			owner.PUT("/reminders", controllers.UpdateReminderSetting)
			owner.PUT("/web", controllers.UpdateWebConfig)
		}

		employees := api.Group("/employees")
		{
			employees.GET("", controllers.GetEmployees)
			employees.POST("", controllers.RequireOwner(), controllers.AddEmployee)
			employees.PUT("/:id", controllers.RequireOwner(), controllers.UpdateEmployee)
			employees.DELETE("/:id", controllers.RequireOwner(), controllers.DeleteEmployee)
		}
	}

	return r
}
