package board_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	cards   []domain.OrderCardDTO
	listErr error

	updateErr   error
	updateDelay time.Duration
	release     chan struct{}
	updates     []domain.OrderStatus
}

func (s *fakeStore) ListCards(ctx context.Context, orderType domain.OrderType) ([]domain.OrderCardDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.OrderCardDTO(nil), s.cards...), nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, session board.Session, orderID uint, status domain.OrderStatus, note string) error {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.updateDelay > 0 {
		select {
		case <-time.After(s.updateDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, status)
	return s.updateErr
}

type fakeNotifier struct {
	mu       sync.Mutex
	failures []uint
}

func (n *fakeNotifier) MoveFailed(session board.Session, orderID uint, from, to domain.OrderStatus, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, orderID)
}

func salesSession() board.Session {
	return board.Session{UserID: "u-1", DisplayName: "Nina Berg", Role: domain.RoleSales}
}

func newTestController(store *fakeStore, notifier *fakeNotifier) *board.Controller {
	return board.NewController(domain.OrderTypeReadyMade, store, notifier, time.Second, zap.NewNop())
}

func TestControllerLoadBuildsBoard(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusPaid),
	}}
	ctl := newTestController(store, &fakeNotifier{})

	require.NoError(t, ctl.Load(context.Background()))
	state := ctl.Snapshot()
	assert.Equal(t, []uint{1}, state.Columns[0].OrderIDs)
	assert.Equal(t, []uint{2}, state.Columns[3].OrderIDs)
	assert.True(t, ctl.Loaded())
	assert.False(t, ctl.Loading())
}

func TestControllerLoadFailureKeepsPreviousState(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1, domain.StatusNew)}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	store.mu.Lock()
	store.listErr = errors.New("backend down")
	store.mu.Unlock()

	err := ctl.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, []uint{1}, ctl.Snapshot().Columns[0].OrderIDs)
}

func TestControllerMovePersistsAndKeepsOptimisticState(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1021, domain.StatusNew)}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1021,
		From:    domain.StatusNew,
		To:      domain.StatusAwaitingPayment,
	})
	require.NoError(t, err)

	state := ctl.Snapshot()
	assert.Empty(t, state.Columns[0].OrderIDs)
	assert.Equal(t, []uint{1021}, state.Columns[2].OrderIDs)
	assert.Equal(t, domain.StatusAwaitingPayment, state.Orders[1021].Status)
	assert.Equal(t, []domain.OrderStatus{domain.StatusAwaitingPayment}, store.updates)
}

func TestControllerMoveFailureRollsBackAndNotifies(t *testing.T) {
	store := &fakeStore{
		cards:     []domain.OrderCardDTO{card(1021, domain.StatusNew)},
		updateErr: errors.New("backend rejected the update"),
	}
	notifier := &fakeNotifier{}
	ctl := newTestController(store, notifier)
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1021,
		From:    domain.StatusNew,
		To:      domain.StatusAwaitingPayment,
	})
	require.Error(t, err)

	state := ctl.Snapshot()
	assert.Equal(t, []uint{1021}, state.Columns[0].OrderIDs)
	assert.Empty(t, state.Columns[2].OrderIDs)
	assert.Equal(t, domain.StatusNew, state.Orders[1021].Status)
	assert.Equal(t, []uint{1021}, notifier.failures)
}

func TestControllerMoveTimeoutIsAFailure(t *testing.T) {
	store := &fakeStore{
		cards:       []domain.OrderCardDTO{card(1, domain.StatusNew)},
		updateDelay: 200 * time.Millisecond,
	}
	notifier := &fakeNotifier{}
	ctl := board.NewController(domain.OrderTypeReadyMade, store, notifier, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})
	require.Error(t, err)
	assert.Equal(t, domain.StatusNew, ctl.Snapshot().Orders[1].Status)
}

func TestControllerRejectsConcurrentMoveOnSameOrder(t *testing.T) {
	store := &fakeStore{
		cards:   []domain.OrderCardDTO{card(1, domain.StatusNew)},
		release: make(chan struct{}),
	}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	first := make(chan error, 1)
	go func() {
		first <- ctl.MoveOrder(context.Background(), salesSession(), board.Move{
			OrderID: 1,
			From:    domain.StatusNew,
			To:      domain.StatusAwaitingConfirmation,
		})
	}()

	// Wait until the first move is parked inside the store.
	require.Eventually(t, ctl.Updating, time.Second, 5*time.Millisecond)

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1,
		From:    domain.StatusAwaitingConfirmation,
		To:      domain.StatusAwaitingPayment,
	})
	assert.ErrorIs(t, err, board.ErrMoveInFlight)

	close(store.release)
	require.NoError(t, <-first)
	assert.Equal(t, []domain.OrderStatus{domain.StatusAwaitingConfirmation}, store.updates)
}

func TestControllerDiscardsResolutionAfterReload(t *testing.T) {
	store := &fakeStore{
		cards:     []domain.OrderCardDTO{card(1, domain.StatusNew)},
		release:   make(chan struct{}),
		updateErr: errors.New("too late"),
	}
	notifier := &fakeNotifier{}
	ctl := newTestController(store, notifier)
	require.NoError(t, ctl.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- ctl.MoveOrder(context.Background(), salesSession(), board.Move{
			OrderID: 1,
			From:    domain.StatusNew,
			To:      domain.StatusPaid,
		})
	}()
	require.Eventually(t, ctl.Updating, time.Second, 5*time.Millisecond)

	// Reload while the persist is parked; its failure must not roll back
	// the freshly loaded state.
	require.NoError(t, ctl.Load(context.Background()))
	close(store.release)
	require.Error(t, <-done)

	assert.Equal(t, domain.StatusNew, ctl.Snapshot().Orders[1].Status)
	assert.Equal(t, []uint{1}, ctl.Snapshot().Columns[0].OrderIDs)
}

func TestControllerFailedReloadDoesNotOrphanPendingMove(t *testing.T) {
	store := &fakeStore{
		cards:     []domain.OrderCardDTO{card(1, domain.StatusNew)},
		release:   make(chan struct{}),
		updateErr: errors.New("backend rejected the update"),
	}
	notifier := &fakeNotifier{}
	ctl := newTestController(store, notifier)
	require.NoError(t, ctl.Load(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- ctl.MoveOrder(context.Background(), salesSession(), board.Move{
			OrderID: 1,
			From:    domain.StatusNew,
			To:      domain.StatusPaid,
		})
	}()
	require.Eventually(t, ctl.Updating, time.Second, 5*time.Millisecond)

	// A reload that fails leaves the optimistic state visible; the parked
	// persist must still resolve against it and roll the card back.
	store.mu.Lock()
	store.listErr = errors.New("backend down")
	store.mu.Unlock()
	require.Error(t, ctl.Load(context.Background()))
	assert.False(t, ctl.Loading())

	close(store.release)
	require.Error(t, <-done)

	state := ctl.Snapshot()
	assert.Equal(t, domain.StatusNew, state.Orders[1].Status)
	assert.Equal(t, []uint{1}, state.Columns[0].OrderIDs)
	assert.Empty(t, state.Columns[3].OrderIDs)
	assert.Equal(t, []uint{1}, notifier.failures)
}

func TestControllerDropsVanishedOrder(t *testing.T) {
	store := &fakeStore{
		cards:     []domain.OrderCardDTO{card(1, domain.StatusNew)},
		updateErr: board.ErrOrderNotFound,
	}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})
	require.ErrorIs(t, err, board.ErrOrderNotFound)

	state := ctl.Snapshot()
	assert.NotContains(t, state.Orders, uint(1))
	for _, col := range state.Columns {
		assert.NotContains(t, col.OrderIDs, uint(1))
	}
}

func TestControllerTerminalOrderCannotBeMoved(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1, domain.StatusCancelled)}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1,
		From:    domain.StatusCancelled,
		To:      domain.StatusNew,
	})
	assert.ErrorIs(t, err, board.ErrTerminalStatus)
	assert.Empty(t, store.updates)
}

func TestControllerViewerIsReadOnly(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1, domain.StatusNew)}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	viewer := board.Session{UserID: "u-2", Role: domain.RoleViewer}
	err := ctl.MoveOrder(context.Background(), viewer, board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})
	assert.ErrorIs(t, err, board.ErrReadOnly)
	assert.Empty(t, store.updates)
}

func TestControllerSameColumnReorderHasNoBackendEffect(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{
		card(1, domain.StatusNew),
		card(2, domain.StatusNew),
	}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 2,
		From:    domain.StatusNew,
		To:      domain.StatusNew,
		ToIndex: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 1}, ctl.Snapshot().Columns[0].OrderIDs)
	assert.Empty(t, store.updates)
}

func TestControllerClosedBoardRejectsMoves(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1, domain.StatusNew)}}
	ctl := newTestController(store, &fakeNotifier{})
	require.NoError(t, ctl.Load(context.Background()))
	ctl.Close()

	err := ctl.MoveOrder(context.Background(), salesSession(), board.Move{
		OrderID: 1,
		From:    domain.StatusNew,
		To:      domain.StatusPaid,
	})
	assert.ErrorIs(t, err, board.ErrClosed)
}

func TestHubSwitchingOrderTypeIsolatesBoards(t *testing.T) {
	store := &fakeStore{cards: []domain.OrderCardDTO{card(1, domain.StatusNew)}}
	hub := board.NewHub(store, &fakeNotifier{}, time.Second, zap.NewNop())

	ready, err := hub.Board(context.Background(), domain.OrderTypeReadyMade)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ready.Columns[0].OrderIDs)

	// The custom-made board has its own catalog and no ready-made cards
	// leak onto it (the fake store filters nothing, but the catalog does).
	custom, err := hub.Board(context.Background(), domain.OrderTypeCustomMade)
	require.NoError(t, err)
	assert.Len(t, custom.Columns, len(domain.StatusesFor(domain.OrderTypeCustomMade)))
	assert.Empty(t, custom.Orders)
}

func TestHubRejectsUnknownOrderType(t *testing.T) {
	hub := board.NewHub(&fakeStore{}, &fakeNotifier{}, time.Second, zap.NewNop())
	_, err := hub.Board(context.Background(), domain.OrderType("bespoke"))
	assert.ErrorIs(t, err, domain.ErrUnknownOrderType)
}
