// Package board implements the order Kanban board: a pure state reducer for
// drag-and-drop moves plus a controller that applies moves optimistically,
// persists them through a Store, and rolls the in-memory state back when
// persistence fails.
package board

import (
	"github.com/woodline/crm-api/internal/domain"
)

// Column is one board column: a catalog status and the ordered ids of the
// orders currently in it.
type Column struct {
	Status   domain.OrderStatus
	OrderIDs []uint
}

// State is the in-memory board for one order type. Columns follow the status
// catalog order and include empty columns. Orders is keyed by order id.
//
// State values are treated as immutable: Apply returns a new State and never
// mutates its input.
type State struct {
	OrderType domain.OrderType
	Columns   []Column
	Orders    map[uint]domain.OrderCardDTO
}

// Move describes a drag from one column position to another. Note, if set,
// is carried onto the status history entry.
type Move struct {
	OrderID uint
	From    domain.OrderStatus
	To      domain.OrderStatus
	ToIndex int
	Note    string
}

// Inverse returns the move that undoes m, placing the order back at its
// original index.
func (m Move) Inverse(fromIndex int) Move {
	return Move{OrderID: m.OrderID, From: m.To, To: m.From, ToIndex: fromIndex}
}

// Effect classifies what a move did to the state.
type Effect int

const (
	// EffectNone: nothing changed (unknown column, unknown order, stale
	// source column, or identical position).
	EffectNone Effect = iota
	// EffectReorder: the order moved within its column. No backend effect;
	// position within a column is not persisted.
	EffectReorder
	// EffectStatusChange: the order moved between columns. The new status
	// must be persisted.
	EffectStatusChange
)

// NewState builds a board from the catalog of the given order type and the
// cards to place on it. Every catalog status gets a column, empty or not.
// Cards whose status is not in the catalog are dropped; the persistence
// layer guarantees they do not occur.
func NewState(orderType domain.OrderType, cards []domain.OrderCardDTO) State {
	statuses := domain.StatusesFor(orderType)
	state := State{
		OrderType: orderType,
		Columns:   make([]Column, len(statuses)),
		Orders:    make(map[uint]domain.OrderCardDTO, len(cards)),
	}
	index := make(map[domain.OrderStatus]int, len(statuses))
	for i, status := range statuses {
		state.Columns[i] = Column{Status: status}
		index[status] = i
	}
	for _, card := range cards {
		i, ok := index[card.Status]
		if !ok {
			continue
		}
		state.Columns[i].OrderIDs = append(state.Columns[i].OrderIDs, card.ID)
		state.Orders[card.ID] = card
	}
	return state
}

// Apply applies a move to the state and reports what it did. The input state
// is never mutated; the returned state shares untouched columns with it.
//
// A move is a no-op (EffectNone) when the destination column does not exist
// on this board, the order is unknown, or the move's source column disagrees
// with the order's current status (a stale drag). A same-column move only
// reorders. A cross-column move relocates the id and rewrites the card's
// status and display metadata.
func Apply(s State, m Move) (State, Effect) {
	toIdx := s.columnIndex(m.To)
	if toIdx < 0 {
		return s, EffectNone
	}
	card, ok := s.Orders[m.OrderID]
	if !ok {
		return s, EffectNone
	}
	if card.Status != m.From {
		return s, EffectNone
	}
	fromIdx := s.columnIndex(m.From)
	if fromIdx < 0 {
		return s, EffectNone
	}

	if fromIdx == toIdx {
		current := indexOf(s.Columns[fromIdx].OrderIDs, m.OrderID)
		target := clamp(m.ToIndex, 0, len(s.Columns[fromIdx].OrderIDs)-1)
		if current < 0 || current == target {
			return s, EffectNone
		}
		next := s.clone()
		ids := removeAt(next.Columns[fromIdx].OrderIDs, current)
		next.Columns[fromIdx].OrderIDs = insertAt(ids, target, m.OrderID)
		return next, EffectReorder
	}

	current := indexOf(s.Columns[fromIdx].OrderIDs, m.OrderID)
	if current < 0 {
		return s, EffectNone
	}
	next := s.clone()
	next.Columns[fromIdx].OrderIDs = removeAt(next.Columns[fromIdx].OrderIDs, current)
	target := clamp(m.ToIndex, 0, len(next.Columns[toIdx].OrderIDs))
	next.Columns[toIdx].OrderIDs = insertAt(next.Columns[toIdx].OrderIDs, target, m.OrderID)

	card.Status = m.To
	if meta, ok := domain.MetaFor(m.To); ok {
		card.StatusMeta = meta
	}
	next.Orders[m.OrderID] = card
	return next, EffectStatusChange
}

// PositionOf returns the column status and index of an order on the board,
// or ok=false if it is not placed.
func (s State) PositionOf(orderID uint) (domain.OrderStatus, int, bool) {
	for _, col := range s.Columns {
		if i := indexOf(col.OrderIDs, orderID); i >= 0 {
			return col.Status, i, true
		}
	}
	return "", 0, false
}

func (s State) columnIndex(status domain.OrderStatus) int {
	for i, col := range s.Columns {
		if col.Status == status {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	next := State{
		OrderType: s.OrderType,
		Columns:   make([]Column, len(s.Columns)),
		Orders:    make(map[uint]domain.OrderCardDTO, len(s.Orders)),
	}
	for i, col := range s.Columns {
		next.Columns[i] = Column{
			Status:   col.Status,
			OrderIDs: append([]uint(nil), col.OrderIDs...),
		}
	}
	for id, card := range s.Orders {
		next.Orders[id] = card
	}
	return next
}

func indexOf(ids []uint, id uint) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []uint, i int) []uint {
	out := make([]uint, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}

func insertAt(ids []uint, i int, id uint) []uint {
	out := make([]uint, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
