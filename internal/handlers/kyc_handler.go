package handlers

import (
	"net/http"

	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type KYCHandler struct {
	KYC *services.KYCService
}

func NewKYCHandler(kyc *services.KYCService) *KYCHandler {
	return &KYCHandler{KYC: kyc}
}

func (h *KYCHandler) Submit(c *gin.Context) {
	var req services.SubmitKYCDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	req.UserId = c.GetString("user_id")

	view, err := h.KYC.Submit(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(view, "KYC submitted for review"))
}

func (h *KYCHandler) Status(c *gin.Context) {
	view, err := h.KYC.GetStatus(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(view, "Successful"))
}
