package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectpulse/internal/sow"
	"projectpulse/pkg/metrics"
)

// MaxSowSize is the upload limit for SoW documents.
const MaxSowSize = 5 << 20

type UploadHandler struct {
	logger *zap.Logger
}

func NewUploadHandler(logger *zap.Logger) *UploadHandler {
	return &UploadHandler{logger: logger}
}

// UploadSoW accepts a PDF under the multipart field "sow", parses it and
// returns a project draft for the dashboard form. The temp copy is
// removed on every path.
func (h *UploadHandler) UploadSoW(c *gin.Context) {
	file, header, err := c.Request.FormFile("sow")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > MaxSowSize {
		metrics.IncrementSowParse("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File exceeds the 5MB limit"})
		return
	}
	if !isPDF(header.Header.Get("Content-Type"), header.Filename) {
		metrics.IncrementSowParse("rejected")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Only PDF files are allowed"})
		return
	}

	tmp, err := os.CreateTemp("", "sow-*.pdf")
	if err != nil {
		h.logger.Error("UploadSoW: failed to create temp file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process PDF file"})
		return
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil {
			h.logger.Error("UploadSoW: failed to delete temp file",
				zap.String("path", tmp.Name()), zap.Error(err))
		}
	}()

	if _, err := tmp.ReadFrom(file); err != nil {
		h.logger.Error("UploadSoW: failed to store upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process PDF file"})
		return
	}

	text, err := sow.ExtractText(tmp.Name())
	if err != nil {
		h.logger.Error("UploadSoW: failed to extract text",
			zap.String("filename", header.Filename), zap.Error(err))
		metrics.IncrementSowParse("failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process PDF file"})
		return
	}

	draft := sow.Parse(text)
	if draft.ProjectName == "" {
		metrics.IncrementSowParse("empty")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Could not extract project data from PDF"})
		return
	}

	metrics.IncrementSowParse("success")
	h.logger.Info("UploadSoW: parsed SoW document",
		zap.String("filename", header.Filename),
		zap.String("project", draft.ProjectName),
		zap.Int("milestones", len(draft.Milestones)),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"projectName": draft.ProjectName,
		"description": draft.Description,
		"startDate":   draft.StartDate,
		"endDate":     draft.EndDate,
		"milestones":  draft.Milestones,
	})
}

func isPDF(contentType, filename string) bool {
	if strings.HasPrefix(contentType, "application/pdf") {
		return true
	}
	// Some browsers send application/octet-stream for PDFs.
	return contentType == "application/octet-stream" &&
		strings.EqualFold(filepath.Ext(filename), ".pdf")
}
