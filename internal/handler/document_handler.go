package handler

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/extract"
	"github.com/xxxsen/docchat/internal/filestore"
	"github.com/xxxsen/docchat/internal/pkg/response"
	"github.com/xxxsen/docchat/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
	extractor *extract.Manager
	files     filestore.Store
}

func NewDocumentHandler(documents *service.DocumentService, extractor *extract.Manager, files filestore.Store) *DocumentHandler {
	return &DocumentHandler{documents: documents, extractor: extractor, files: files}
}

type uploadResponse struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to read file")
		return
	}

	filename := filepath.Base(file.Filename)
	ctx := c.Request.Context()
	text, err := h.extractor.Extract(ctx, filename, bytes.NewReader(data))
	if err != nil {
		handleError(c, err)
		return
	}
	meta, err := h.documents.Ingest(ctx, text, filename)
	if err != nil {
		handleError(c, err)
		return
	}

	// Upload retention is best effort: the document is already indexed, a
	// failed raw-file write only loses the re-download feature.
	key := buildFileKey(meta.DocumentID, filename)
	if err := h.files.Save(ctx, key, bytes.NewReader(data)); err != nil {
		logutil.GetLogger(ctx).Error("retain upload failed", zap.String("key", key), zap.Error(err))
	}

	response.Success(c, uploadResponse{
		DocumentID:  meta.DocumentID,
		Filename:    meta.Filename,
		TotalChunks: meta.TotalChunks,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs, "total": len(docs)})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "document id is required")
		return
	}
	deleted, err := h.documents.Delete(c.Request.Context(), documentID)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.Error(c, http.StatusNotFound, "not_found", "document not found")
		return
	}
	response.Success(c, gin.H{"deleted": true, "document_id": documentID})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		c.Status(http.StatusBadRequest)
		return
	}
	file, err := h.files.Open(c.Request.Context(), key)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func buildFileKey(documentID, filename string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		default:
			return '_'
		}
	}, filename)
	return documentID + "_" + sanitized
}
