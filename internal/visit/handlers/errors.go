package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	e "github.com/snyce/visitgate/internal/visit/errors"
	"go.uber.org/zap"
)

// abortWithError maps domain errors to HTTP status codes.
func (h *VisitHandler) abortWithError(c *gin.Context, err error) {
	var verr *e.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
		return
	}

	switch {
	case errors.Is(err, e.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrMissingVisitReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, e.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "no data to download"})
	case errors.Is(err, e.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
