// server/internal/api/routes/routes.go
package routes

import (
	"time"

	"disaster-relief-api-server/config"
	"disaster-relief-api-server/internal/api/handlers"
	"disaster-relief-api-server/internal/api/middleware"
	"disaster-relief-api-server/internal/auth"
	"disaster-relief-api-server/internal/contact"
	"disaster-relief-api-server/internal/inventory"
	"disaster-relief-api-server/internal/lifecycle"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/replenishment"
	"disaster-relief-api-server/internal/reporting"
	"disaster-relief-api-server/internal/socket"
	"disaster-relief-api-server/internal/store"
	"disaster-relief-api-server/internal/users"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router hands to its handlers.
type Deps struct {
	Cfg           config.Config
	Store         store.Store
	Tokens        *auth.Tokens
	Hub           *socket.Hub
	Lifecycle     *lifecycle.Manager
	Inventory     *inventory.Service
	Replenishment *replenishment.Service
	Reports       *reporting.Service
	Users         *users.Service
	Contact       *contact.Service
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requestHandler := &handlers.RequestHandler{Lifecycle: d.Lifecycle, Reports: d.Reports}
	warehouseHandler := &handlers.WarehouseHandler{Inventory: d.Inventory}
	ngoResourceHandler := &handlers.NgoResourceHandler{Inventory: d.Inventory}
	replenishmentHandler := &handlers.ReplenishmentHandler{Replenishment: d.Replenishment}
	ngoHandler := &handlers.NgoHandler{Lifecycle: d.Lifecycle, Reports: d.Reports}
	userHandler := &handlers.UserHandler{Users: d.Users}
	analyticsHandler := &handlers.AnalyticsHandler{Reports: d.Reports}
	dashboardHandler := &handlers.DashboardHandler{Reports: d.Reports}
	contactHandler := &handlers.ContactHandler{Contact: d.Contact}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens}

	authenticate := middleware.Authenticate(d.Tokens, d.Store.Users())
	authorize := middleware.Authorize

	api := router.Group("/api")
	{
		api.GET("/ws", webSocketHandler.ServeWs)

		// === Public ===
		api.POST("/users/register", userHandler.Register)
		api.POST("/users/login", userHandler.Login)
		api.POST("/contact/send", contactHandler.Send)
		api.GET("/dashboard/volunteer/stats", dashboardHandler.VolunteerStats)
		api.GET("/dashboard/volunteer/tasks", dashboardHandler.VolunteerTasks)
		api.GET("/dashboard/volunteer/assigned-tasks", dashboardHandler.VolunteerAssignedTasks)

		public := api.Group("/requests")
		{
			public.POST("", requestHandler.CreateRequest)
			public.GET("", requestHandler.GetRequests)
			public.GET("/:id", requestHandler.GetRequestByID)
			public.PUT("/:id/status", requestHandler.UpdateStatus)
			public.POST("/:id/assistance", requestHandler.RequestAssistance)
		}

		// === Protected ===
		requests := api.Group("/requests").Use(authenticate)
		{
			requests.POST("/resource",
				authorize(models.RoleAdmin, models.RoleEmergency, models.RoleNGO, models.RoleVolunteer),
				requestHandler.CreateResourceRequest)
			requests.PUT("/:id/assign",
				authorize(models.RoleAdmin, models.RoleEmergency, models.RoleNGO),
				requestHandler.AssignRequest)
			requests.GET("/report", authorize(models.RoleAdmin), requestHandler.GetRequestsReport)
			requests.GET("/stats/last7days", authorize(models.RoleAdmin), requestHandler.GetLast7DaysStats)
		}

		ngoResources := api.Group("/ngo-resources").Use(authenticate)
		{
			ngoResources.GET("", authorize(models.RoleNGO), ngoResourceHandler.GetMyResources)
			ngoResources.POST("/assign", authorize(models.RoleAdmin), ngoResourceHandler.AssignResource)
			ngoResources.PUT("/:id", authorize(models.RoleNGO), ngoResourceHandler.UpdateResource)
			ngoResources.DELETE("/:id", authorize(models.RoleNGO), ngoResourceHandler.DeleteResource)
			ngoResources.PUT("/:id/deploy", authorize(models.RoleNGO), ngoResourceHandler.DeployResource)
		}

		resources := api.Group("/resources").Use(authenticate)
		{
			resources.GET("/all", authorize(models.RoleAdmin), warehouseHandler.GetAllNgoResources)
			resources.GET("/warehouse", authorize(models.RoleAdmin), warehouseHandler.GetWarehouse)
			resources.POST("/warehouse", authorize(models.RoleAdmin), warehouseHandler.AddWarehouseItem)
			resources.PUT("/warehouse/:id", authorize(models.RoleAdmin), warehouseHandler.UpdateWarehouseItem)
			resources.DELETE("/warehouse/:id", authorize(models.RoleAdmin), warehouseHandler.DeleteWarehouseItem)

			resources.POST("/request-replenishment", authorize(models.RoleNGO), replenishmentHandler.CreateRequest)
			resources.GET("/my-replenishment-requests", authorize(models.RoleNGO), replenishmentHandler.GetMyRequests)
			resources.GET("/replenishment-requests", authorize(models.RoleAdmin), replenishmentHandler.GetRequests)
			resources.PUT("/replenishment-requests/:id", authorize(models.RoleAdmin), replenishmentHandler.ResolveRequest)
		}

		ngos := api.Group("/ngos").Use(authenticate)
		{
			ngos.GET("/:ngoId/requests", authorize(models.RoleNGO, models.RoleAdmin), ngoHandler.GetNgoRequests)
			ngos.GET("/:ngoId/dashboard", authorize(models.RoleNGO), ngoHandler.GetDashboard)
			ngos.PUT("/:ngoId/requests/:requestId/accept", authorize(models.RoleNGO), ngoHandler.AcceptRequest)
			ngos.PUT("/tasks/:taskId/accept", authorize(models.RoleNGO), ngoHandler.AcceptTask)
		}

		usersGroup := api.Group("/users").Use(authenticate)
		{
			usersGroup.POST("", authorize(models.RoleAdmin), userHandler.CreateUser)
			usersGroup.GET("/all", authorize(models.RoleAdmin), userHandler.GetAllUsers)
			usersGroup.PUT("/:id/toggle-block", authorize(models.RoleAdmin), userHandler.ToggleBlock)
			usersGroup.PATCH("/:id/location", userHandler.UpdateLocation)
		}

		dashboard := api.Group("/dashboard").Use(authenticate)
		{
			dashboard.GET("/emergency-overview", dashboardHandler.EmergencyOverview)
			dashboard.GET("/volunteers", dashboardHandler.Volunteers)
		}

		contactQueries := api.Group("/contact/queries").Use(authenticate, authorize(models.RoleAdmin))
		{
			contactQueries.GET("", contactHandler.GetQueries)
			contactQueries.PUT("/:id", contactHandler.UpdateQueryStatus)
			contactQueries.POST("/:id/reply", contactHandler.Reply)
		}

		analytics := api.Group("/analytics").Use(authenticate, authorize(models.RoleAdmin))
		{
			analytics.GET("/all", analyticsHandler.GetAll)
		}
	}

	return router
}
