package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// parseOrderID parses the {id} path parameter. Order ids are integers.
func parseOrderID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseOrderType parses the required "type" query parameter for the
// type-scoped board endpoints.
func parseOrderType(r *http.Request) (domain.OrderType, bool) {
	t := domain.OrderType(r.URL.Query().Get("type"))
	return t, t.IsValid()
}

// List godoc
// @Summary List orders
// @Description Get paginated list of orders with optional filters
// @Tags Orders
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param type query string false "Filter by order type" Enums(ready-made, custom-made)
// @Param status query string false "Filter by status"
// @Param paymentStatus query string false "Filter by payment status" Enums(unpaid, partially-paid, fully-paid, refunded)
// @Param managerId query string false "Filter by manager"
// @Param search query string false "Search by number or notes"
// @Param openOnly query bool false "Only orders not in a terminal status"
// @Param sortBy query string false "Sort option" Enums(created_desc, created_asc, amount_desc, number_asc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	page, pageSize = repository.NormalizePage(page, pageSize)

	filters := &repository.OrderFilters{
		ManagerID: r.URL.Query().Get("managerId"),
		Search:    r.URL.Query().Get("search"),
		OpenOnly:  r.URL.Query().Get("openOnly") == "true",
	}
	if t := r.URL.Query().Get("type"); t != "" {
		orderType := domain.OrderType(t)
		if !orderType.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid order type")
			return
		}
		filters.Type = &orderType
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.OrderStatus(s)
		filters.Status = &status
	}
	if p := r.URL.Query().Get("paymentStatus"); p != "" {
		ps := domain.PaymentStatus(p)
		filters.PaymentStatus = &ps
	}

	sortBy := repository.OrderSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.OrderSortOption(s)
	}

	orders, total, err := h.orderService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(orders, total, page, pageSize))
}

// Create godoc
// @Summary Create order
// @Description Create a new order. Requires a contact or a source lead; the order number is generated.
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body domain.CreateOrderRequest true "Order data"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create order", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetByID godoc
// @Summary Get order by ID
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Update godoc
// @Summary Update order
// @Description Update order fields from the edit form. Changing the order type re-validates the status against the new catalog.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param order body domain.UpdateOrderRequest true "Fields to update"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [put]
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req domain.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.orderService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update order", zap.Uint("order_id", id), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Delete godoc
// @Summary Delete order
// @Description Delete an order and its status history. Admin only.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orderService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Board godoc
// @Summary Get Kanban board
// @Description Get the board for one order type: every catalog column in order plus the cards keyed by id. Empty columns are included.
// @Tags Board
// @Accept json
// @Produce json
// @Param type query string true "Order type" Enums(ready-made, custom-made)
// @Param refresh query bool false "Reload from the database instead of the cached snapshot"
// @Success 200 {object} domain.BoardDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/board [get]
func (h *OrderHandler) Board(w http.ResponseWriter, r *http.Request) {
	orderType, ok := parseOrderType(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'type' must be ready-made or custom-made")
		return
	}

	var (
		board *domain.BoardDTO
		err   error
	)
	if r.URL.Query().Get("refresh") == "true" {
		board, err = h.orderService.RefreshBoard(r.Context(), orderType)
	} else {
		board, err = h.orderService.Board(r.Context(), orderType)
	}
	if err != nil {
		h.logger.Error("failed to load board",
			zap.String("order_type", string(orderType)),
			zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// Move godoc
// @Summary Move order on the board
// @Description Move an order card to another column (status change) or reorder it within its column. Concurrent moves of the same order are rejected.
// @Tags Board
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param type query string true "Order type" Enums(ready-made, custom-made)
// @Param move body domain.MoveOrderRequest true "Destination status and position"
// @Success 200 {object} domain.BoardDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/move [post]
func (h *OrderHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	orderType, ok := parseOrderType(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'type' must be ready-made or custom-made")
		return
	}

	var req domain.MoveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	board, err := h.orderService.MoveOrder(r.Context(), orderType, id, &req)
	if err != nil {
		h.logger.Warn("board move rejected",
			zap.Uint("order_id", id),
			zap.String("to_status", string(req.Status)),
			zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

// StatusCatalog godoc
// @Summary Get status catalog
// @Description Get the ordered status list for one order type, with display metadata, for the edit form's status selector.
// @Tags Orders
// @Accept json
// @Produce json
// @Param type query string true "Order type" Enums(ready-made, custom-made)
// @Success 200 {object} domain.StatusCatalogDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/statuses [get]
func (h *OrderHandler) StatusCatalog(w http.ResponseWriter, r *http.Request) {
	orderType, ok := parseOrderType(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'type' must be ready-made or custom-made")
		return
	}

	catalog, err := h.orderService.StatusCatalog(orderType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}

// StatusHistory godoc
// @Summary Get order status history
// @Description Get the audit trail of an order's status changes, newest first.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {array} domain.OrderStatusHistoryDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/history [get]
func (h *OrderHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	history, err := h.orderService.StatusHistory(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// RecordPayment godoc
// @Summary Record payment
// @Description Record a payment against an order. The payment status moves to partially-paid or fully-paid depending on the accumulated amount.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param payment body domain.RecordPaymentRequest true "Payment amount"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/payments [post]
func (h *OrderHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.orderService.RecordPayment(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to record payment", zap.Uint("order_id", id), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
