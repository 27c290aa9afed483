package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/resultsphere/internal/app/controllers"
	"github.com/yigit/resultsphere/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	resultController *controllers.ResultController,
	branchPerformanceController *controllers.BranchPerformanceController,
	updateController *controllers.UpdateController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	// Branch summaries and announcements are public
	v1.GET("/branch-performance/:semester", branchPerformanceController.GetBranchPerformance)
	v1.GET("/updates", updateController.ListUpdates)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/profile", authController.GetProfile)
		authenticated.PUT("/auth/profile", userController.UpdateProfile)

		results := authenticated.Group("/results")
		{
			// Students may only read their own roll; enforced in the service
			results.GET("/:roll/:semester", resultController.GetStudentResults)

			resultsAdmin := results.Group("")
			resultsAdmin.Use(authMiddleware.AdminRequired())
			{
				resultsAdmin.POST("/upload", resultController.UploadGradeSheet)
			}
		}

		semestersAdmin := authenticated.Group("/semesters")
		semestersAdmin.Use(authMiddleware.AdminRequired())
		{
			semestersAdmin.GET("/:semester/rolls", resultController.ListSemesterRolls)
		}

		studentsAdmin := authenticated.Group("/students")
		studentsAdmin.Use(authMiddleware.AdminRequired())
		{
			studentsAdmin.GET("", userController.GetUsersByFilter)
			studentsAdmin.PUT("/:id", userController.UpdateUser)
		}

		updatesAdmin := authenticated.Group("/updates")
		updatesAdmin.Use(authMiddleware.AdminRequired())
		{
			updatesAdmin.POST("", updateController.CreateUpdate)
		}
	}
}
