package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"kire/cmd/routing-engine/internal/service"
	"kire/pkg/auth"

	"github.com/gin-gonic/gin"
	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"go.uber.org/zap"
)

const userContextKey = "user_context"

// Logger 日志接口
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	service *service.RoutingService
	jwt     *auth.JWTManager
	logger  Logger
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(srv *service.RoutingService, jwt *auth.JWTManager, logger Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	s := &HTTPServer{
		engine:  engine,
		service: srv,
		jwt:     jwt,
		logger:  logger,
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// Engine 返回底层gin引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// registerMiddlewares 注册中间件
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.corsMiddleware())
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware 从Bearer令牌解析用户身份
func (s *HTTPServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := s.jwt.UserContextFromToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.authMiddleware())
	{
		api.POST("/route", s.route)
		api.GET("/routing/profile", s.profile)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/stats", s.stats)
		admin.GET("/audit", s.audit)
	}

	// 健康检查
	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
}

// route 执行一次路由决策
func (s *HTTPServer) route(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, err := s.service.Route(c.Request.Context(), user, payload)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// profile 查询生效画像
func (s *HTTPServer) profile(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		return
	}

	result, err := s.service.Profile(c.Request.Context(), user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// stats 运行时缓存与去重统计
func (s *HTTPServer) stats(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		return
	}

	result, err := s.service.Stats(c.Request.Context(), user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// audit 决策审计报告
func (s *HTTPServer) audit(c *gin.Context) {
	user := s.currentUser(c)
	if user == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	result, err := s.service.Audit(c.Request.Context(), user, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// healthCheck 健康检查
func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readinessCheck 就绪检查
func (s *HTTPServer) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// currentUser 取认证中间件写入的用户身份
func (s *HTTPServer) currentUser(c *gin.Context) *auth.UserContext {
	value, exists := c.Get(userContextKey)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return nil
	}
	user, ok := value.(*auth.UserContext)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return nil
	}
	return user
}

// respondError kratos错误映射为HTTP响应
func (s *HTTPServer) respondError(c *gin.Context, err error) {
	ke := kratoserrors.FromError(err)

	status := int(ke.Code)
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	s.logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("reason", ke.Reason),
		zap.Error(err),
	)

	c.JSON(status, gin.H{
		"error":  ke.Message,
		"reason": ke.Reason,
	})
}
