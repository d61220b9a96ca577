// Package server exposes the scan pipeline and the invoice store over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/solvi-app/vatscan/internal/common"
	"github.com/solvi-app/vatscan/internal/entity"
	"github.com/solvi-app/vatscan/internal/export"
	"github.com/solvi-app/vatscan/internal/repository"
)

// Scanner is the slice of the pipeline the handlers need.
type Scanner interface {
	ProcessImage(ctx context.Context, imagePath string) (*entity.InvoiceRecord, error)
}

type Server struct {
	scanner   Scanner
	repo      repository.InvoiceRepository
	exporter  *export.Service
	uploadDir string
	logger    *slog.Logger
}

func New(scanner Scanner, repo repository.InvoiceRepository, exporter *export.Service, uploadDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		scanner:   scanner,
		repo:      repo,
		exporter:  exporter,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/invoices/scan", s.scanInvoice)
		v1.GET("/invoices", s.listInvoices)
		v1.GET("/invoices/export", s.exportInvoices)
		v1.GET("/invoices/:id", s.getInvoice)
		v1.DELETE("/invoices/:id", s.deleteInvoice)
	}
	return r
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), requestID))
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.logger.Info("http.request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
