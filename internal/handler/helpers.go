package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, apperrors.ErrEmptyDocument):
		response.Error(c, http.StatusBadRequest, "empty_document", "no extractable text in file")
	case errors.Is(err, apperrors.ErrUnsupportedFile):
		response.Error(c, http.StatusBadRequest, "invalid_file", "unsupported file type")
	case errors.Is(err, apperrors.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, apperrors.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, apperrors.ErrPersistence):
		response.Error(c, http.StatusInternalServerError, "persistence", "storage failure")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
