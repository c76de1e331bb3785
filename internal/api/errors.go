package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"thrift_market/internal/market"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps a market-layer error onto its HTTP status:
// NotFound -> 404, Forbidden -> 403, Conflict -> 409, Validation -> 400.
// Anything else is an internal error: logged with context, reported as
// a generic 500 message.
func respondError(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, market.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errDetail(err, market.ErrNotFound)})
	case errors.Is(err, market.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": errDetail(err, market.ErrForbidden)})
	case errors.Is(err, market.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": errDetail(err, market.ErrConflict)})
	case errors.Is(err, market.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": errDetail(err, market.ErrValidation)})
	default:
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error(internalMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalMsg})
	}
}

// errDetail strips the sentinel prefix so the client sees only the
// human-readable part ("cannot buy own product", not
// "forbidden: cannot buy own product").
func errDetail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// currentUserID reads the authenticated user set by the JWT middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}
