package handler

import (
	"net/http"

	"github.com/woodline/crm-api/internal/service"
	"go.uber.org/zap"
)

type FinanceHandler struct {
	financeService *service.FinanceService
	logger         *zap.Logger
}

func NewFinanceHandler(financeService *service.FinanceService, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{
		financeService: financeService,
		logger:         logger,
	}
}

// PaymentSummary godoc
// @Summary Payment summary
// @Description Aggregate payment figures across orders: totals, counts per payment status, monthly revenue for the last year, open and overdue order counts.
// @Tags Finance
// @Accept json
// @Produce json
// @Success 200 {object} domain.PaymentSummaryDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /finance/summary [get]
func (h *FinanceHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.financeService.PaymentSummary(r.Context())
	if err != nil {
		h.logger.Error("failed to build payment summary", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
