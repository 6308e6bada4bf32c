package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"referral-rewards/internal/services"
)

// statusFor maps service error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateConfig):
		return http.StatusConflict
	case services.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is a stable machine-readable name for an error kind
func errorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, services.ErrSelfReferral):
		return "SELF_REFERRAL"
	case errors.Is(err, services.ErrAlreadyRedeemed):
		return "ALREADY_REDEEMED"
	case errors.Is(err, services.ErrAlreadyReferred):
		return "ALREADY_REFERRED"
	case errors.Is(err, services.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, services.ErrDuplicateConfig):
		return "DUPLICATE_CONFIG"
	case errors.Is(err, services.ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "INTERNAL"
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error", "code": errorCode(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errorCode(err)})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": "INVALID_INPUT"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": "INVALID_INPUT"})
		return 0, false
	}
	return n, true
}
