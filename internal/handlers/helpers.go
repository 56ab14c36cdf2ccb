package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

// statusFor maps service sentinel errors onto HTTP statuses. Anything
// unmapped is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCollectionNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrNotAcceptingFunds):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrKycNotApproved),
		errors.Is(err, services.ErrNotOrganizer):
		return http.StatusForbidden
	case errors.Is(err, services.ErrCollectionFrozen):
		return http.StatusConflict
	case errors.Is(err, services.ErrAlreadyApplied):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, common.NewErrorResponse(message, nil, status))
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}
