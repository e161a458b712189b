package main

import (
	"log"

	"go-study-group/internal/api"
	"go-study-group/internal/middleware"
	"go-study-group/internal/repository"
	"go-study-group/internal/service"
	"go-study-group/pkg/config"
	"go-study-group/pkg/db"
	"go-study-group/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 初始化配置
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库连接
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 仓库
	userRepo := repository.NewUserRepository()
	courseRepo := repository.NewCourseRepository()
	groupRepo := repository.NewGroupRepository()
	memberRepo := repository.NewGroupMemberRepository()
	requestRepo := repository.NewJoinRequestRepository()
	notificationRepo := repository.NewNotificationRepository()
	messageRepo := repository.NewMessageRepository()
	enrollmentRepo := repository.NewEnrollmentRepository()

	// 服务
	authService := service.NewAuthService(userRepo)
	courseService := service.NewCourseService(courseRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	groupService := service.NewGroupService(groupRepo, memberRepo, requestRepo, courseRepo, userRepo, messageRepo, notificationService)
	messageService := service.NewMessageService(messageRepo, memberRepo, groupRepo)
	dashboardService := service.NewDashboardService(enrollmentRepo, courseRepo, groupService)

	// 处理器
	authHandler := api.NewAuthHandler(authService)
	courseHandler := api.NewCourseHandler(courseService)
	groupHandler := api.NewGroupHandler(groupService)
	notificationHandler := api.NewNotificationHandler(notificationService)
	messageHandler := api.NewMessageHandler(messageService)
	dashboardHandler := api.NewDashboardHandler(dashboardService)

	// 创建Gin引擎
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.GinZapLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.GlobalConfig.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// 公开路由
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	// 受保护的路由
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/courses", courseHandler.GetAllCourses)
		protected.GET("/courses/:course_id", courseHandler.GetCourse)
		protected.POST("/courses/:course_id/enroll", dashboardHandler.EnrollInCourse)
		protected.DELETE("/courses/:course_id/enroll", dashboardHandler.UnenrollFromCourse)
		protected.GET("/profile/courses", dashboardHandler.GetEnrolledCourses)
		protected.GET("/dashboard", dashboardHandler.GetDashboard)

		protected.POST("/groups", groupHandler.CreateGroup)
		protected.GET("/groups", groupHandler.GetAllGroups)
		protected.GET("/groups/my-groups", groupHandler.GetUserGroups)
		protected.GET("/groups/:group_id", groupHandler.GetGroupDetails)
		protected.PUT("/groups/:group_id", groupHandler.UpdateGroup)
		protected.GET("/groups/:group_id/members", groupHandler.GetGroupMembers)
		protected.DELETE("/groups/:group_id/members", groupHandler.RemoveAllMembers)
		protected.POST("/groups/:group_id/join", groupHandler.JoinGroup)
		protected.DELETE("/groups/:group_id/leave", groupHandler.LeaveGroup)
		protected.GET("/groups/:group_id/requests", groupHandler.ListJoinRequests)
		protected.POST("/groups/requests/:request_id", groupHandler.ResolveJoinRequest)

		protected.GET("/groups/:group_id/messages", messageHandler.GetGroupMessages)
		protected.POST("/groups/:group_id/messages", messageHandler.SendGroupMessage)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.POST("/notifications/:notification_id/read", notificationHandler.MarkRead)
	}

	// 启动服务器
	if err := r.Run(config.GlobalConfig.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
