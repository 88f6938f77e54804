package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/domain"
)

// Sentinel errors returned by the controller.
var (
	// ErrClosed is returned after Close; the board is being torn down.
	ErrClosed = errors.New("board is closed")
	// ErrReadOnly is returned when the session's role may not move orders.
	ErrReadOnly = errors.New("session is read-only")
	// ErrMoveInFlight is returned when a move for the same order is still
	// being persisted. Moves serialize per order; the caller retries after
	// the first move resolves.
	ErrMoveInFlight = errors.New("a move for this order is already in flight")
	// ErrTerminalStatus is returned when dragging a completed or cancelled
	// order. Reopening happens through the edit form, not the board.
	ErrTerminalStatus = errors.New("order is in a terminal status")
	// ErrOrderNotFound is reported by Store implementations when the order
	// no longer exists. The controller drops the card instead of rolling
	// back, since there is nothing to roll back to.
	ErrOrderNotFound = errors.New("order not found")
)

// Session identifies who is driving the board. It is passed explicitly on
// every call; the controller never digs identity out of a context.
type Session struct {
	UserID      string
	DisplayName string
	Role        domain.UserRoleType
}

// CanMoveOrders reports whether the session's role allows status changes.
func (s Session) CanMoveOrders() bool {
	switch s.Role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleSales:
		return true
	}
	return false
}

// Store is the persistence boundary the controller depends on.
type Store interface {
	// ListCards returns the cards for all orders of the given type.
	ListCards(ctx context.Context, orderType domain.OrderType) ([]domain.OrderCardDTO, error)
	// UpdateStatus persists a status change. Implementations return an
	// error wrapping ErrOrderNotFound when the order has vanished.
	UpdateStatus(ctx context.Context, session Session, orderID uint, status domain.OrderStatus, note string) error
}

// Notifier receives board failures that should surface to the user.
type Notifier interface {
	MoveFailed(session Session, orderID uint, from, to domain.OrderStatus, err error)
}

// Controller owns the live board for one order type. Moves are applied
// optimistically to the in-memory state, persisted through the Store with a
// bounded timeout, and rolled back when persistence fails. At most one
// persistence call is in flight per order id; the epoch advances whenever
// the visible state is replaced (successful reload, Close) and discards
// resolutions of moves that were applied to a state no longer shown.
type Controller struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration

	mu       sync.Mutex
	state    State
	loaded   bool
	loading  bool
	updating int
	epoch    uint64
	loadSeq  uint64
	inflight map[uint]struct{}
	closed   bool
}

// NewController creates a controller for one order type's board. The state
// is empty until the first Load.
func NewController(orderType domain.OrderType, store Store, notifier Notifier, timeout time.Duration, logger *zap.Logger) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		state:    NewState(orderType, nil),
		inflight: make(map[uint]struct{}),
	}
}

// Load fetches the orders from the store and rebuilds the board. A
// successful load replaces the visible state and advances the epoch, so any
// move still persisting resolves against the old epoch and is discarded. A
// load failure leaves the previous state untouched and the epoch alone:
// moves persisting against that state can still roll back into it. An empty
// result is a valid board, not an error.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	orderType := c.state.OrderType
	c.loading = true
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cards, err := c.store.ListCards(ctx, orderType)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadSeq != seq || c.closed {
		// A newer load or Close superseded this one.
		return nil
	}
	c.loading = false
	if err != nil {
		return err
	}
	c.state = NewState(orderType, cards)
	c.loaded = true
	// The old state is gone; resolutions of moves applied to it no
	// longer have anything to confirm or roll back.
	c.epoch++
	return nil
}

// Loaded reports whether the board has been populated at least once.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Loading reports whether a reload is in progress. This is the board-level
// loading flag the frontend renders a spinner from.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Updating reports whether any move is currently being persisted. This is
// the board-level spinner flag; serialization is per order, not global.
func (c *Controller) Updating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updating > 0
}

// Snapshot returns a copy of the current board state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Close tears the board down. In-flight moves resolve against a dead epoch
// and are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.epoch++
}

// MoveOrder handles one drag. The move is applied to the in-memory state
// first so every reader sees it immediately, then persisted. On failure the
// inverse move restores the card to its original position and the notifier
// is told; the error is also returned.
//
// Same-column reorders and no-op drops (unknown column, stale source)
// return nil without touching the store.
func (c *Controller) MoveOrder(ctx context.Context, session Session, m Move) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !session.CanMoveOrders() {
		c.mu.Unlock()
		return ErrReadOnly
	}
	if _, busy := c.inflight[m.OrderID]; busy {
		c.mu.Unlock()
		return ErrMoveInFlight
	}
	card, ok := c.state.Orders[m.OrderID]
	if ok && card.Status.IsTerminal() && m.To != card.Status {
		c.mu.Unlock()
		return ErrTerminalStatus
	}

	_, fromIndex, _ := c.state.PositionOf(m.OrderID)
	next, effect := Apply(c.state, m)
	switch effect {
	case EffectNone:
		c.mu.Unlock()
		return nil
	case EffectReorder:
		c.state = next
		c.mu.Unlock()
		return nil
	}

	// Status change: commit optimistically and persist outside the lock.
	c.state = next
	c.inflight[m.OrderID] = struct{}{}
	c.updating++
	epoch := c.epoch
	c.mu.Unlock()

	persistCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.store.UpdateStatus(persistCtx, session, m.OrderID, m.To, m.Note)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.updating--
	delete(c.inflight, m.OrderID)

	if c.epoch != epoch {
		// The board was reloaded or closed while persisting; this
		// resolution no longer applies to the visible state.
		return err
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrOrderNotFound) {
		c.dropOrder(m.OrderID)
	} else {
		c.rollback(m, fromIndex)
	}
	if c.logger != nil {
		c.logger.Warn("board move failed",
			zap.Uint("order_id", m.OrderID),
			zap.String("from", string(m.From)),
			zap.String("to", string(m.To)),
			zap.Error(err),
		)
	}
	if c.notifier != nil {
		c.notifier.MoveFailed(session, m.OrderID, m.From, m.To, err)
	}
	return err
}

// rollback re-applies the inverse move. Must be called with the lock held.
func (c *Controller) rollback(m Move, fromIndex int) {
	restored, effect := Apply(c.state, m.Inverse(fromIndex))
	if effect != EffectNone {
		c.state = restored
	}
}

// dropOrder removes a vanished order from the board. Must be called with
// the lock held.
func (c *Controller) dropOrder(orderID uint) {
	next := c.state.clone()
	delete(next.Orders, orderID)
	for i := range next.Columns {
		if j := indexOf(next.Columns[i].OrderIDs, orderID); j >= 0 {
			next.Columns[i].OrderIDs = removeAt(next.Columns[i].OrderIDs, j)
		}
	}
	c.state = next
}

// Hub keeps one live controller per order type and routes board reads and
// moves to it. Selecting another order type simply addresses a different
// controller; a reload of one board never disturbs the other.
type Hub struct {
	mu          sync.Mutex
	controllers map[domain.OrderType]*Controller

	store    Store
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

// NewHub creates a hub backed by the given store.
func NewHub(store Store, notifier Notifier, timeout time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		controllers: make(map[domain.OrderType]*Controller),
		store:       store,
		notifier:    notifier,
		logger:      logger,
		timeout:     timeout,
	}
}

// Board returns the board state for an order type, loading it on first use.
func (h *Hub) Board(ctx context.Context, orderType domain.OrderType) (State, error) {
	ctl, err := h.controller(orderType)
	if err != nil {
		return State{}, err
	}
	if !ctl.Loaded() {
		if err := ctl.Load(ctx); err != nil {
			return State{}, err
		}
	}
	return ctl.Snapshot(), nil
}

// Refresh reloads the board for an order type from the store.
func (h *Hub) Refresh(ctx context.Context, orderType domain.OrderType) (State, error) {
	ctl, err := h.controller(orderType)
	if err != nil {
		return State{}, err
	}
	if err := ctl.Load(ctx); err != nil {
		return State{}, err
	}
	return ctl.Snapshot(), nil
}

// Move routes a drag to the order type's controller. The board must have
// been loaded; moving on a never-loaded board loads it first so a direct
// API call behaves the same as a drag on a rendered board.
func (h *Hub) Move(ctx context.Context, orderType domain.OrderType, session Session, m Move) error {
	ctl, err := h.controller(orderType)
	if err != nil {
		return err
	}
	if !ctl.Loaded() {
		if err := ctl.Load(ctx); err != nil {
			return err
		}
	}
	return ctl.MoveOrder(ctx, session, m)
}

// Invalidate forces the next Board call for an order type to reload. Called
// after out-of-band order mutations (form edits, type changes).
func (h *Hub) Invalidate(orderType domain.OrderType) {
	h.mu.Lock()
	ctl, ok := h.controllers[orderType]
	if ok {
		ctl.Close()
		delete(h.controllers, orderType)
	}
	h.mu.Unlock()
}

func (h *Hub) controller(orderType domain.OrderType) (*Controller, error) {
	if !orderType.IsValid() {
		return nil, domain.ErrUnknownOrderType
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ctl, ok := h.controllers[orderType]
	if !ok {
		ctl = NewController(orderType, h.store, h.notifier, h.timeout, h.logger)
		h.controllers[orderType] = ctl
	}
	return ctl, nil
}
