// Package engine places tickets on the planning grid and keeps the derived
// state of tickets, cells and projects consistent.
package engine

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"planboard/clock"
	"planboard/db"
	"planboard/grid"
)

var (
	// ErrInvariant reports stored data that contradicts the board's rules,
	// such as a scheduled ticket without any cell.
	ErrInvariant = errors.New("board invariant violated")

	// ErrInvalidTarget is returned when a ticket is dropped on a spacer
	// column or above the first row.
	ErrInvalidTarget = errors.New("invalid target cell")
)

// Drawer is told which tickets changed once an operation has been committed.
type Drawer interface {
	DrawTicket(id uint)
	EraseTicket(id uint)
}

type nopDrawer struct{}

func (nopDrawer) DrawTicket(uint)  {}
func (nopDrawer) EraseTicket(uint) {}

// Board runs the ticket operations. Every exported operation is one
// transaction; the drawer only hears about committed changes.
type Board struct {
	store   *db.Store
	layout  *grid.Layout
	clock   clock.Clock
	log     *zap.Logger
	drawer  Drawer
	changes *changeSet
}

// Option configures a Board.
type Option func(*Board)

// WithDrawer sets the drawer notified after each operation.
func WithDrawer(d Drawer) Option {
	return func(b *Board) { b.drawer = d }
}

// WithClock replaces the wall clock used to find today's row.
func WithClock(c clock.Clock) Option {
	return func(b *Board) { b.clock = c }
}

// NewBoard creates a board over store and layout.
func NewBoard(store *db.Store, layout *grid.Layout, log *zap.Logger, opts ...Option) *Board {
	b := &Board{
		store:  store,
		layout: layout,
		clock:  clock.Real(),
		log:    log,
		drawer: nopDrawer{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Layout returns the coordinates the board works with.
func (b *Board) Layout() *grid.Layout {
	return b.layout
}

// SetDrawer replaces the drawer. It must not be called while an operation runs.
func (b *Board) SetDrawer(d Drawer) {
	if d == nil {
		d = nopDrawer{}
	}
	b.drawer = d
}

// run executes fn in a transaction on a copy of the board bound to it. Nested
// calls join the enclosing transaction. A rollback also drops the layout rows
// added during fn.
func (b *Board) run(ctx context.Context, fn func(b *Board) error) error {
	if b.changes != nil {
		return fn(b)
	}
	changes := newChangeSet()
	rows := b.layout.RowCount()
	err := b.store.Transaction(ctx, func(tx *db.Store) error {
		inner := *b
		inner.store = tx
		inner.changes = changes
		return fn(&inner)
	})
	if err != nil {
		// rows added for cells that were rolled back
		b.layout.Shrink(rows)
		return err
	}
	changes.notify(b.drawer)
	return nil
}

// Update runs fn in one transaction. fn gets the board and the store bound to
// it, so board operations called on b join the transaction and are rolled back
// with it.
func (b *Board) Update(ctx context.Context, fn func(b *Board, store *db.Store) error) error {
	return b.run(ctx, func(b *Board) error {
		return fn(b, b.store)
	})
}

// changeSet collects the tickets to redraw or erase during one transaction.
type changeSet struct {
	drawn  map[uint]struct{}
	erased map[uint]struct{}
}

func newChangeSet() *changeSet {
	return &changeSet{drawn: map[uint]struct{}{}, erased: map[uint]struct{}{}}
}

func (c *changeSet) draw(id uint) {
	c.drawn[id] = struct{}{}
}

func (c *changeSet) erase(id uint) {
	c.erased[id] = struct{}{}
}

// remove forgets a deleted ticket: it is erased and never redrawn.
func (c *changeSet) remove(id uint) {
	delete(c.drawn, id)
	c.erased[id] = struct{}{}
}

func (c *changeSet) notify(d Drawer) {
	for _, id := range sortedIDs(c.erased) {
		d.EraseTicket(id)
	}
	for _, id := range sortedIDs(c.drawn) {
		d.DrawTicket(id)
	}
}

func sortedIDs(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
