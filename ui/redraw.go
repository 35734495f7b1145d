package ui

import (
	"sort"
	"sync"
)

// redrawQueue collects the tickets the engine reports as changed. Commands run
// off the UI goroutine, so it is guarded by a mutex.
type redrawQueue struct {
	mu    sync.Mutex
	draw  map[uint]struct{}
	erase map[uint]struct{}
}

func newRedrawQueue() *redrawQueue {
	return &redrawQueue{draw: map[uint]struct{}{}, erase: map[uint]struct{}{}}
}

// DrawTicket implements engine.Drawer.
func (q *redrawQueue) DrawTicket(id uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.draw[id] = struct{}{}
}

// EraseTicket implements engine.Drawer.
func (q *redrawQueue) EraseTicket(id uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.draw, id)
	q.erase[id] = struct{}{}
}

// Drain returns and forgets the pending tickets, sorted.
func (q *redrawQueue) Drain() (draw, erase []uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id := range q.draw {
		draw = append(draw, id)
	}
	for id := range q.erase {
		erase = append(erase, id)
	}
	q.draw = map[uint]struct{}{}
	q.erase = map[uint]struct{}{}
	sort.Slice(draw, func(i, j int) bool { return draw[i] < draw[j] })
	sort.Slice(erase, func(i, j int) bool { return erase[i] < erase[j] })
	return draw, erase
}
