package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/marketplace/pkg/config"
	"github.com/example/marketplace/pkg/media"
	"github.com/example/marketplace/pkg/repository"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	ctxUserID       = "userID"
	ctxSessionToken = "sessionToken"
)

// Dependencies are the collaborators the server works against. Audit
// may be nil, which disables audit logging.
type Dependencies struct {
	Catalog *repository.CatalogRepository
	Users   *repository.UserRepository
	Orders  *repository.OrderRepository
	Store   *repository.RedisRepository
	Audit   *repository.AuditRepository
	Media   *media.Storage
}

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	catalog *repository.CatalogRepository
	users   *repository.UserRepository
	orders  *repository.OrderRepository
	store   *repository.RedisRepository
	audit   *repository.AuditRepository
	media   *media.Storage
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		catalog: deps.Catalog,
		users:   deps.Users,
		orders:  deps.Orders,
		store:   deps.Store,
		audit:   deps.Audit,
		media:   deps.Media,
	}
}

func (s *Server) SetupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Uploaded media
	s.router.StaticFS(s.media.URLPrefix(), s.media.HTTPFileSystem())

	api := s.router.Group("/api", s.sessionMiddleware())
	{
		// Catalog
		api.GET("/categories", s.listCategories)
		api.GET("/catalog", s.listCatalog)
		api.GET("/products/popular", s.popularProducts)
		api.GET("/products/limited", s.limitedProducts)
		api.GET("/sales", s.saleProducts)
		api.GET("/banners", s.bannerProducts)
		api.GET("/tags", s.listTags)
		api.GET("/product/:id", s.productDetail)
		api.POST("/product/:id/reviews", s.createReview)

		// Basket works for anonymous visitors too
		basket := api.Group("/basket", s.ensureSession())
		{
			basket.GET("", s.getBasket)
			basket.POST("", s.addToBasket)
			basket.DELETE("", s.removeFromBasket)
		}

		// Identity
		api.POST("/sign-up", s.signUp)
		api.POST("/sign-in", s.signIn)

		auth := api.Group("", s.requireAuth())
		{
			auth.POST("/sign-out", s.signOut)
			auth.GET("/orders", s.listOrders)
			auth.POST("/orders", s.createOrder)
			auth.GET("/order/:id", s.orderDetail)
			auth.POST("/order/:id", s.updateOrder)
			auth.GET("/order/:id/history", s.orderHistory)
			auth.POST("/payment", s.payment)
			auth.GET("/profile", s.getProfile)
			auth.POST("/profile", s.updateProfile)
			auth.POST("/profile/avatar", s.uploadAvatar)
			auth.POST("/profile/password", s.changePassword)
		}
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// sessionMiddleware resolves the session cookie into a user id. An
// unknown or expired token is treated as no session, never an error.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.config.Session.CookieName)
		if err == nil && token != "" {
			userID, err := s.store.SessionUser(c.Request.Context(), token)
			if err == nil {
				c.Set(ctxSessionToken, token)
				c.Set(ctxUserID, userID)
			}
		}
		c.Next()
	}
}

// ensureSession lazily creates an anonymous session so a visitor can
// build a cart before signing in.
func (s *Server) ensureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxSessionToken); ok {
			c.Next()
			return
		}
		token, err := s.store.CreateSession(c.Request.Context(), 0, s.config.Session.TTL)
		if err != nil {
			s.logger.Error("Failed to create session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		s.setSessionCookie(c, token)
		c.Set(ctxSessionToken, token)
		c.Set(ctxUserID, uint(0))
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(s.config.Session.CookieName, token, int(s.config.Session.TTL.Seconds()), "/", "", false, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetCookie(s.config.Session.CookieName, "", -1, "/", "", false, true)
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		return v.(uint)
	}
	return 0
}

func sessionToken(c *gin.Context) string {
	if v, ok := c.Get(ctxSessionToken); ok {
		return v.(string)
	}
	return ""
}

// auditLog records a mutating operation without blocking the request.
func (s *Server) auditLog(action, entityID string, userID uint, data bson.M) {
	if s.audit == nil {
		return
	}
	go func() {
		if err := s.audit.Record(context.Background(), action, entityID, userID, data); err != nil {
			s.logger.Warn("Audit write failed", zap.String("action", action), zap.Error(err))
		}
	}()
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
