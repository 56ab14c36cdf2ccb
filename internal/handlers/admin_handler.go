package handlers

import (
	"net/http"

	"fundflow-service/internal/models"
	"fundflow-service/internal/services"
	"fundflow-service/pkg/common"

	"github.com/gin-gonic/gin"
)

// AdminHandler covers the review surfaces: KYC decisions, withdrawal
// decisions, platform settings and the dashboard summary.
type AdminHandler struct {
	KYC         *services.KYCService
	Withdrawals *services.WithdrawalService
	Settings    *services.SettingsService
	Collections *services.CollectionService
}

func NewAdminHandler(kyc *services.KYCService, withdrawals *services.WithdrawalService, settings *services.SettingsService, collections *services.CollectionService) *AdminHandler {
	return &AdminHandler{KYC: kyc, Withdrawals: withdrawals, Settings: settings, Collections: collections}
}

func (h *AdminHandler) ListPendingKYC(c *gin.Context) {
	page, limit := pageParams(c)
	records, total, err := h.KYC.ListPending(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.PaginateResponse(records, total, page, limit, "Pending KYC fetched successfully"))
}

type reviewKYCRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (h *AdminHandler) ReviewKYC(c *gin.Context) {
	var req reviewKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	view, err := h.KYC.Review(services.ReviewKYCDTO{
		UserId:  c.Param("userId"),
		Approve: req.Approve,
		Reason:  req.Reason,
		AdminId: c.GetString("user_id"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(view, "KYC review recorded"))
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	page, limit := pageParams(c)

	query := h.Withdrawals.DB.Model(&models.Withdrawal{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var list []models.Withdrawal
	if err := query.Order("created_at ASC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.PaginateResponse(list, total, page, limit, "Withdrawal requests fetched successfully"))
}

type decideWithdrawalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

func (h *AdminHandler) DecideWithdrawal(c *gin.Context) {
	var req decideWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}

	withdrawal, err := h.Withdrawals.DecideWithdrawal(services.DecideWithdrawalDTO{
		WithdrawalId: c.Param("id"),
		Approve:      req.Approve,
		Reason:       req.Reason,
		AdminId:      c.GetString("user_id"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(withdrawal, "Withdrawal decision recorded"))
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.Get()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(settings, "Successful"))
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	req.UpdatedBy = c.GetString("user_id")

	settings, err := h.Settings.Update(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(err.Error(), nil, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(settings, "Settings updated"))
}

func (h *AdminHandler) Summary(c *gin.Context) {
	summary, err := h.Collections.Summary()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(summary, "Successful"))
}
