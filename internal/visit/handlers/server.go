package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/snyce/visitgate/internal/visit/auth"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and route registration.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
	endpoint   string
}

// NewServer builds the router with CORS defaults matching the expected
// operator console origins.
func NewServer(port int, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	return &Server{
		router:   router,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", port),
	}
}

// RegisterRoutes mounts the visit routes. Submission and lookup routes
// are public; administrative mutations sit behind the session
// middleware.
func (s *Server) RegisterRoutes(h *VisitHandler, jwtSecret string) {
	api := s.router.Group("/api")

	api.POST("/visitors/register", h.Register)
	api.GET("/visitors/:id", h.GetVisit)
	api.GET("/companies", h.ListCompanies)
	api.GET("/hosts", h.ListHosts)

	admin := api.Group("", auth.Middleware(jwtSecret))
	admin.GET("/visitors", h.History)
	admin.PATCH("/approvals/:id/approve", h.Approve)
	admin.PATCH("/approvals/:id/reject", h.Reject)
	admin.PATCH("/approvals/:id/approve-checkin", h.ApproveAndCheckIn)
	admin.PATCH("/visitors/:id/checkin", h.CheckIn)
	admin.PATCH("/visitors/:id/checkout", h.CheckOut)
	admin.POST("/visitors/checkout-all", h.CheckOutAll)
	admin.GET("/admin/history", h.History)
	admin.GET("/admin/active-visitors", h.ActiveVisits)
	admin.GET("/admin/approvals", h.PendingApprovals)
	admin.GET("/admin/stats", h.Stats)
	admin.GET("/admin/status-counts", h.StatusCounts)
	admin.GET("/admin/chart", h.LiveChart)
	admin.GET("/admin/reports", h.Reports)
	admin.GET("/admin/reports/export", h.ExportReports)
	admin.POST("/companies", h.CreateCompany)
	admin.POST("/hosts", h.CreateHost)
}

// Start runs the HTTP server until it fails or is stopped.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.endpoint,
		Handler: s.router,
	}
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.endpoint))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Server stopped")
}
