package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/solvi-app/vatscan/constants"
	"github.com/solvi-app/vatscan/internal/entity"
	"github.com/solvi-app/vatscan/internal/repository"
)

// scanInvoice accepts a multipart image upload, runs it through the
// pipeline and returns the stored record.
func (s *Server) scanInvoice(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	ext := filepath.Ext(file.Filename)
	if !constants.IsAllowedExt(ext) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported file type %q", ext)})
		return
	}

	dst := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.logger.Error("http.upload.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	rec, err := s.scanner.ProcessImage(c.Request.Context(), dst)
	if err != nil {
		s.logger.Error("http.scan.failed", "path", dst, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "scan failed"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) listInvoices(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := s.repo.List(c.Request.Context(), f)
	if err != nil {
		s.logger.Error("http.list.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if recs == nil {
		recs = []*entity.InvoiceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": recs})
}

func (s *Server) getInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}

	rec, err := s.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if err != nil {
		s.logger.Error("http.get.failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}

	err = s.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	if err != nil {
		s.logger.Error("http.delete.failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// exportInvoices streams an XLSX workbook of the selected window.
func (s *Server) exportInvoices(c *gin.Context) {
	from, err := dateParam(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := dateParam(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.exporter.ExportXLSX(c.Request.Context(), from, to)
	if err != nil {
		s.logger.Error("http.export.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	name := "invoices-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

func filterFromQuery(c *gin.Context) (repository.Filter, error) {
	f := repository.Filter{Vendor: c.Query("vendor")}
	from, err := dateParam(c, "from")
	if err != nil {
		return f, err
	}
	to, err := dateParam(c, "to")
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

func dateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q, want YYYY-MM-DD", name, raw)
	}
	return &t, nil
}
