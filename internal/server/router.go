package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/retrocraftdevops/seitech/internal/handlers"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/utils"
)

type RouterConfig struct {
	SkillHandler          *handlers.SkillHandler
	LedgerHandler         *handlers.LedgerHandler
	PathHandler           *handlers.PathHandler
	RecommendationHandler *handlers.RecommendationHandler
	EventHandler          *handlers.EventHandler
}

func NewRouter(log *logger.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Skills
		api.POST("/skills", cfg.SkillHandler.Create)
		api.GET("/skills/trending", cfg.SkillHandler.Trending)
		api.GET("/skills/category/:category", cfg.SkillHandler.ByCategory)
		api.GET("/skills/:id", cfg.SkillHandler.Get)
		api.GET("/skills/:id/path", cfg.SkillHandler.FullPath)
		api.GET("/skills/:id/descendants", cfg.SkillHandler.Descendants)
		api.GET("/skills/:id/related", cfg.SkillHandler.Related)
		api.GET("/skills/:id/courses", cfg.SkillHandler.CoursesTeaching)
		api.PUT("/skills/:id/parent", cfg.SkillHandler.SetParent)
		api.DELETE("/skills/:id", cfg.SkillHandler.Deactivate)
		api.POST("/course-skills", cfg.SkillHandler.MapCourse)
		api.POST("/courses/:courseId/skills", cfg.SkillHandler.BulkMapCourse)

		// Ledger
		api.GET("/users/:userId/skills", cfg.LedgerHandler.List)
		api.GET("/users/:userId/skills/profile", cfg.LedgerHandler.Profile)
		api.POST("/users/:userId/skills/gaps", cfg.LedgerHandler.Gaps)
		api.POST("/users/:userId/skills/:skillId/level-up", cfg.LedgerHandler.LevelUp)
		api.POST("/users/:userId/skills/:skillId/verify", cfg.LedgerHandler.Verify)
		api.PUT("/users/:userId/skills/:skillId/target", cfg.LedgerHandler.SetTarget)
		api.POST("/users/:userId/skills/:skillId/practice", cfg.LedgerHandler.Practice)

		// Learning paths
		api.POST("/paths", cfg.PathHandler.Create)
		api.GET("/paths/overdue", cfg.PathHandler.Overdue)
		api.GET("/paths/:id", cfg.PathHandler.Get)
		api.GET("/users/:userId/paths", cfg.PathHandler.List)
		api.POST("/paths/:id/nodes", cfg.PathHandler.AddNode)
		api.POST("/paths/:id/prerequisites", cfg.PathHandler.AddPathPrerequisite)
		api.POST("/paths/:id/activate", cfg.PathHandler.Activate)
		api.POST("/paths/:id/complete", cfg.PathHandler.Complete)
		api.POST("/paths/:id/hold", cfg.PathHandler.Hold)
		api.POST("/paths/:id/resume", cfg.PathHandler.Resume)
		api.POST("/paths/:id/archive", cfg.PathHandler.Archive)
		api.POST("/paths/:id/recompute", cfg.PathHandler.Recompute)
		api.POST("/paths/:id/recalculate", cfg.PathHandler.Recalculate)
		api.POST("/paths/:id/estimates", cfg.PathHandler.Estimates)
		api.POST("/paths/:id/generate", cfg.PathHandler.Generate)
		api.POST("/paths/:id/clone", cfg.PathHandler.CloneTemplate)
		api.GET("/paths/:id/next-action", cfg.PathHandler.NextAction)
		api.GET("/paths/:id/gaps", cfg.PathHandler.Gaps)
		api.DELETE("/nodes/:nodeId", cfg.PathHandler.RemoveNode)
		api.PUT("/nodes/:nodeId/deadline", cfg.PathHandler.SetNodeDeadline)
		api.POST("/nodes/:nodeId/prerequisites", cfg.PathHandler.AddNodePrerequisite)
		api.DELETE("/nodes/:nodeId/prerequisites", cfg.PathHandler.ClearNodePrerequisites)

		// Recommendations
		api.POST("/users/:userId/recommendations", cfg.RecommendationHandler.Generate)
		api.GET("/users/:userId/recommendations", cfg.RecommendationHandler.Pending)
		api.POST("/recommendations/:id/view", cfg.RecommendationHandler.View)
		api.POST("/recommendations/:id/enroll", cfg.RecommendationHandler.Enroll)
		api.POST("/recommendations/:id/dismiss", cfg.RecommendationHandler.Dismiss)
		api.POST("/recommendations/:id/save", cfg.RecommendationHandler.Save)

		// Events
		api.POST("/events/course-completed", cfg.EventHandler.CourseCompleted)
	}

	return router
}
