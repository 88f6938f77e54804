package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/http/handler"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

// fakeAuth injects a fixed user context, standing in for the JWT middleware.
func fakeAuth(role domain.UserRoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithUserContext(r.Context(), &auth.UserContext{
				UserID:      "test-user",
				DisplayName: "Test User",
				Email:       "test@example.com",
				Role:        role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newOrderService(db *gorm.DB) *service.OrderService {
	logger := zap.NewNop()
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	hub := board.NewHub(
		service.NewBoardStore(orderRepo, historyRepo, logger),
		service.NewBoardNotifier(notificationRepo, logger),
		5*time.Second,
		logger,
	)
	return service.NewOrderService(
		orderRepo,
		historyRepo,
		repository.NewContactRepository(db),
		repository.NewLeadRepository(db),
		repository.NewClientCompanyRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewUserRepository(db),
		notificationRepo,
		service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger),
		hub,
		logger,
	)
}

func newOrderRouter(db *gorm.DB, role domain.UserRoleType) http.Handler {
	h := handler.NewOrderHandler(newOrderService(db), zap.NewNop())

	r := chi.NewRouter()
	r.Use(fakeAuth(role))
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/board", h.Board)
		r.Get("/statuses", h.StatusCatalog)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/move", h.Move)
		r.Get("/{id}/history", h.StatusHistory)
		r.Post("/{id}/payments", h.RecordPayment)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOrderHandler_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	contact := testutil.CreateTestContact(t, db, "Kari", "Nordmann")
	router := newOrderRouter(db, domain.RoleManager)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"orderType": "ready-made",
		"contactId": contact.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.StatusNew, created.Status)
	assert.Equal(t, "Kari Nordmann", created.ContactName)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/orders/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("unknown order is 404", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/orders/999999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/orders/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderHandler_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	contact := testutil.CreateTestContact(t, db, "Per", "Hansen")
	router := newOrderRouter(db, domain.RoleManager)

	t.Run("missing contact and lead is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
			"orderType": "ready-made",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign status is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
			"orderType": "ready-made",
			"contactId": contact.ID,
			"status":    "in_production",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("viewer is forbidden", func(t *testing.T) {
		viewerRouter := newOrderRouter(db, domain.RoleViewer)
		rec := doJSON(t, viewerRouter, http.MethodPost, "/orders", map[string]any{
			"orderType": "ready-made",
			"contactId": contact.ID,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOrderHandler_Board(t *testing.T) {
	db := testutil.SetupTestDB(t)
	contact := testutil.CreateTestContact(t, db, "Anna", "Berg")
	router := newOrderRouter(db, domain.RoleManager)

	rec := doJSON(t, router, http.MethodPost, "/orders", map[string]any{
		"orderType": "ready-made",
		"contactId": contact.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.OrderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	t.Run("board returns all columns", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/orders/board?type=ready-made", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var boardDTO domain.BoardDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &boardDTO))
		assert.Len(t, boardDTO.Columns, len(domain.StatusesFor(domain.OrderTypeReadyMade)))
		require.Len(t, boardDTO.Columns[0].OrderIDs, 1)
	})

	t.Run("board without type is 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/orders/board", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("move relocates the card", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost,
			fmt.Sprintf("/orders/%d/move?type=ready-made", created.ID),
			map[string]any{"status": "awaiting_confirmation"},
		)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var boardDTO domain.BoardDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &boardDTO))
		assert.Empty(t, boardDTO.Columns[0].OrderIDs)
		assert.Len(t, boardDTO.Columns[1].OrderIDs, 1)
	})

	t.Run("move to foreign status is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost,
			fmt.Sprintf("/orders/%d/move?type=ready-made", created.ID),
			map[string]any{"status": "in_production"},
		)
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})
}

func TestOrderHandler_StatusCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newOrderRouter(db, domain.RoleViewer)

	rec := doJSON(t, router, http.MethodGet, "/orders/statuses?type=custom-made", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var catalog domain.StatusCatalogDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Len(t, catalog.Statuses, len(domain.StatusesFor(domain.OrderTypeCustomMade)))

	rec = doJSON(t, router, http.MethodGet, "/orders/statuses?type=bespoke", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
