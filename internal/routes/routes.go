package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/config"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/controllers"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/middleware"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	controllers.UseJSONFieldNames()

	// Services
	tenancy := services.NewTenancyService(db)
	bills := services.NewBillService(db)

	// Controllers
	authCtrl := &controllers.AuthController{
		DB:            db,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshJWTSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}
	userCtrl := &controllers.UserController{DB: db}
	roomCtrl := &controllers.RoomController{Rooms: services.NewRoomService(db)}
	tenantCtrl := &controllers.TenantController{Tenancy: tenancy, Bills: bills}
	billCtrl := &controllers.BillController{Bills: bills}
	txCtrl := &controllers.TransactionController{Ledger: services.NewLedgerService(db)}
	reportCtrl := &controllers.ReportController{Reports: services.NewReportService(db)}
	healthCtrl := &controllers.HealthController{DB: db}

	r.Use(middleware.SecurityHeaders())
	r.GET("/healthz", healthCtrl.Healthz)

	// Public
	public := r.Group("/api")
	{
		public.POST("/login", authCtrl.Login)
		public.POST("/refresh", authCtrl.Refresh)
	}

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		JWTExpiresIn: cfg.AccessTTL(),
	})
	api := r.Group("/api", authMW, middleware.RequireRoles(controllers.RoleAdmin, controllers.RoleStaff))
	{
		api.GET("/user", authCtrl.Me)
		api.POST("/logout", authCtrl.Logout)

		// Rooms
		api.GET("/kamars", roomCtrl.ListRooms)
		api.POST("/kamars", roomCtrl.CreateRoom)
		api.POST("/kamars/import", roomCtrl.ImportRooms)
		api.GET("/kamars/:id", roomCtrl.GetRoom)
		api.PUT("/kamars/:id", roomCtrl.UpdateRoom)
		api.DELETE("/kamars/:id", roomCtrl.DeleteRoom)

		// Tenancies
		api.GET("/penghunis", tenantCtrl.List)
		api.POST("/penghunis", tenantCtrl.Create)
		api.GET("/penghunis/:id", tenantCtrl.Get)
		api.PUT("/penghunis/:id", tenantCtrl.Update)
		api.DELETE("/penghunis/:id", tenantCtrl.Delete)
		api.POST("/penghunis/:id/payment", tenantCtrl.RecordPayment)
		api.POST("/penghunis/:id/checkout", tenantCtrl.Checkout)
		api.POST("/penghunis/:id/reassign", tenantCtrl.Reassign)
		api.GET("/penghunis/:id/tagihans", tenantCtrl.ListBills)
		api.GET("/penghunis/:id/kuitansi-preview", tenantCtrl.ReceiptPreview)

		// Bills
		api.POST("/tagihans", billCtrl.Create)
		api.GET("/tagihans/:id/kuitansi-data", billCtrl.ReceiptData)

		// Ledger
		api.GET("/transaksis", txCtrl.List)
		api.POST("/transaksis", txCtrl.Create)
		api.GET("/transaksis/:id", txCtrl.Get)
		api.PUT("/transaksis/:id", txCtrl.Update)
		api.DELETE("/transaksis/:id", txCtrl.Delete)

		// Reports
		reports := api.Group("/reports")
		{
			reports.GET("/dashboard-stats", reportCtrl.DashboardStats)
			reports.GET("/room-occupancy", reportCtrl.RoomOccupancy)
			reports.GET("/occupancy-trend", reportCtrl.OccupancyTrend)
			reports.GET("/financial-summary", reportCtrl.FinancialSummary)
			reports.GET("/tenant-details", reportCtrl.TenantDetails)
			reports.GET("/due-soon", reportCtrl.DueSoon)
			reports.GET("/laba-rugi", reportCtrl.ProfitLoss)
		}

		// Admin-only
		admin := api.Group("/users", middleware.RequireRoles(controllers.RoleAdmin))
		{
			admin.GET("", userCtrl.ListUsers)
			admin.POST("", userCtrl.CreateUser)
			admin.GET("/:id", userCtrl.GetUser)
			admin.PUT("/:id", userCtrl.UpdateUser)
			admin.DELETE("/:id", userCtrl.DeleteUser)
		}
	}
}
