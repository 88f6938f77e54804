package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
)

func TestToOrderDTO(t *testing.T) {
	contactID := uuid.New()
	amount := 12500.0
	closing := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)

	order := &domain.Order{
		ID:            7,
		Number:        "RM-2026-007",
		Type:          domain.OrderTypeReadyMade,
		Status:        domain.StatusCompleted,
		ContactID:     &contactID,
		Contact:       &domain.Contact{FirstName: "Kari", LastName: "Nordmann"},
		ManagerID:     "manager-1",
		Manager:       &domain.User{ID: "manager-1", DisplayName: "Manager"},
		FinalAmount:   &amount,
		PaymentStatus: domain.PaymentStatusFullyPaid,
		ClosingDate:   &closing,
	}

	dto := mapper.ToOrderDTO(order)

	assert.Equal(t, uint(7), dto.ID)
	assert.Equal(t, "RM-2026-007", dto.Number)
	assert.Equal(t, "Kari Nordmann", dto.ContactName)
	assert.Equal(t, "Manager", dto.ManagerName)
	assert.Equal(t, "Completed", dto.StatusMeta.Label)
	require.NotNil(t, dto.ClosingDate)
	assert.Equal(t, "2026-05-12T14:00:00Z", *dto.ClosingDate)
}

func TestToOrderCardDTO(t *testing.T) {
	t.Run("card shows contact name", func(t *testing.T) {
		order := &domain.Order{
			ID:      1,
			Status:  domain.StatusNew,
			Type:    domain.OrderTypeReadyMade,
			Contact: &domain.Contact{FirstName: "Per", LastName: "Hansen"},
		}
		card := mapper.ToOrderCardDTO(order)
		assert.Equal(t, "Per Hansen", card.ContactName)
		assert.Equal(t, "New", card.StatusMeta.Label)
	})

	t.Run("lead-only order falls back to the lead name", func(t *testing.T) {
		order := &domain.Order{
			ID:     2,
			Status: domain.StatusNew,
			Type:   domain.OrderTypeReadyMade,
			Lead:   &domain.Lead{Name: "Ola Interessent"},
		}
		card := mapper.ToOrderCardDTO(order)
		assert.Equal(t, "Ola Interessent", card.ContactName)
	})
}

func TestToStatusCatalogDTO(t *testing.T) {
	dto := mapper.ToStatusCatalogDTO(domain.OrderTypeReadyMade)

	require.Len(t, dto.Statuses, len(domain.StatusesFor(domain.OrderTypeReadyMade)))
	assert.Equal(t, domain.StatusNew, dto.Statuses[0].Status)
	assert.Equal(t, "New", dto.Statuses[0].Label)
	assert.False(t, dto.Statuses[0].Terminal)

	last := dto.Statuses[len(dto.Statuses)-1]
	assert.Equal(t, domain.StatusCancelled, last.Status)
	assert.True(t, last.Terminal)
}

func TestToNotificationDTO(t *testing.T) {
	readAt := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	notification := &domain.Notification{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		UserID:    "sales-1",
		Type:      string(domain.NotificationTypeOrderStatusChanged),
		Title:     "Order moved",
		Message:   "Order RM-2026-007 moved to Paid",
		Read:      true,
		ReadAt:    &readAt,
	}

	dto := mapper.ToNotificationDTO(notification)
	assert.True(t, dto.Read)
	require.NotNil(t, dto.ReadAt)
	assert.Equal(t, "2026-08-01T09:30:00Z", *dto.ReadAt)
}
