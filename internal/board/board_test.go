package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
)

func card(id uint, status domain.OrderStatus) domain.OrderCardDTO {
	meta, _ := domain.MetaFor(status)
	return domain.OrderCardDTO{
		ID:         id,
		Number:     "WL-2026-001",
		OrderType:  domain.OrderTypeReadyMade,
		Status:     status,
		StatusMeta: meta,
	}
}

func TestNewStateBuildsEveryCatalogColumn(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusNew),
		card(3, domain.StatusInDelivery),
	})

	catalog := domain.StatusesFor(domain.OrderTypeReadyMade)
	require.Len(t, state.Columns, len(catalog))
	for i, col := range state.Columns {
		assert.Equal(t, catalog[i], col.Status)
	}

	assert.Equal(t, []uint{1, 2}, state.Columns[0].OrderIDs)
	assert.Empty(t, state.Columns[1].OrderIDs)
	assert.Len(t, state.Orders, 3)
}

func TestNewStateEmptyBoardIsNotAnError(t *testing.T) {
	state := board.NewState(domain.OrderTypeCustomMade, nil)

	require.Len(t, state.Columns, len(domain.StatusesFor(domain.OrderTypeCustomMade)))
	for _, col := range state.Columns {
		assert.Empty(t, col.OrderIDs)
	}
	assert.Empty(t, state.Orders)
}

func TestApplyCrossColumnMove(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1021, domain.StatusNew),
		card(1022, domain.StatusNew),
	})

	next, effect := board.Apply(state, board.Move{
		OrderID: 1021,
		From:    domain.StatusNew,
		To:      domain.StatusAwaitingPayment,
	})

	require.Equal(t, board.EffectStatusChange, effect)
	assert.Equal(t, []uint{1022}, next.Columns[0].OrderIDs)
	assert.Equal(t, []uint{1021}, next.Columns[2].OrderIDs)
	assert.Equal(t, domain.StatusAwaitingPayment, next.Orders[1021].Status)
	wantMeta, _ := domain.MetaFor(domain.StatusAwaitingPayment)
	assert.Equal(t, wantMeta, next.Orders[1021].StatusMeta)

	// No duplicate anywhere on the board.
	seen := 0
	for _, col := range next.Columns {
		for _, id := range col.OrderIDs {
			if id == 1021 {
				seen++
			}
		}
	}
	assert.Equal(t, 1, seen)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
	})

	_, effect := board.Apply(state, board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})

	require.Equal(t, board.EffectStatusChange, effect)
	assert.Equal(t, []uint{1}, state.Columns[0].OrderIDs)
	assert.Equal(t, domain.StatusNew, state.Orders[1].Status)
}

func TestApplyUnknownDestinationIsNoOp(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
	})

	// in_production belongs to the custom-made catalog only.
	next, effect := board.Apply(state, board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusInProduction,
	})

	assert.Equal(t, board.EffectNone, effect)
	assert.Equal(t, state, next)
}

func TestApplyUnknownOrderIsNoOp(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, nil)

	_, effect := board.Apply(state, board.Move{
		OrderID: 99,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})

	assert.Equal(t, board.EffectNone, effect)
}

func TestApplyStaleSourceColumnIsNoOp(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusPaid),
	})

	// The drag started from a column the order is no longer in.
	_, effect := board.Apply(state, board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusInDelivery,
	})

	assert.Equal(t, board.EffectNone, effect)
}

func TestApplySameColumnReorder(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusNew),
		card(3, domain.StatusNew),
	})

	next, effect := board.Apply(state, board.Move{
		OrderID: 3,
		From:    domain.StatusNew,
		To:      domain.StatusNew,
		ToIndex: 0,
	})

	require.Equal(t, board.EffectReorder, effect)
	assert.Equal(t, []uint{3, 1, 2}, next.Columns[0].OrderIDs)
	assert.Equal(t, domain.StatusNew, next.Orders[3].Status)
}

func TestApplySameColumnSamePositionIsNoOp(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusNew),
	})

	_, effect := board.Apply(state, board.Move{
		OrderID: 2,
		From:    domain.StatusNew,
		To:      domain.StatusNew,
		ToIndex: 1,
	})

	assert.Equal(t, board.EffectNone, effect)
}

func TestApplyClampsDestinationIndex(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusPaid),
	})

	next, effect := board.Apply(state, board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
		ToIndex: 40,
	})

	require.Equal(t, board.EffectStatusChange, effect)
	assert.Equal(t, []uint{2, 1}, next.Columns[3].OrderIDs)
}

func TestInverseRestoresOriginalPosition(t *testing.T) {
	state := board.NewState(domain.OrderTypeReadyMade, []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusNew),
		card(3, domain.StatusNew),
	})

	move := board.Move{OrderID: 2, From: domain.StatusNew, To: domain.StatusPaid}
	_, fromIndex, ok := state.PositionOf(2)
	require.True(t, ok)

	moved, effect := board.Apply(state, move)
	require.Equal(t, board.EffectStatusChange, effect)

	restored, effect := board.Apply(moved, move.Inverse(fromIndex))
	require.Equal(t, board.EffectStatusChange, effect)
	assert.Equal(t, []uint{1, 2, 3}, restored.Columns[0].OrderIDs)
	assert.Equal(t, domain.StatusNew, restored.Orders[2].Status)
}
