package handlers

import (
	"net/http"

	"fundflow-service/internal/models"
	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	Withdrawals *services.WithdrawalService
}

func NewWithdrawalHandler(withdrawals *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{Withdrawals: withdrawals}
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	var req services.RequestWithdrawalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	req.CollectionId = c.Param("id")
	req.RequesterId = c.GetString("user_id")

	withdrawal, err := h.Withdrawals.RequestWithdrawal(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, common.NewSuccessResponse(withdrawal, "Withdrawal requested"))
}

func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	var list []models.Withdrawal
	err := h.Withdrawals.DB.
		Where("requester_id = ?", c.GetString("user_id")).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(list, "Successful"))
}
