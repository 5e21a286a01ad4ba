// Package engine runs the meeting state machine of each channel: meeting
// lifecycle, the agenda and the motions, on top of a store.Provider.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stake-plus/govmeet/src/meeting/store"
	"github.com/stake-plus/govmeet/src/metrics"
)

// Engine is safe for concurrent use. Operations on one channel are
// serialised; different channels proceed independently.
type Engine struct {
	stores   store.Provider
	notifier Notifier
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an engine over stores. notifier may be nil.
func New(stores store.Provider, notifier Notifier) *Engine {
	return &Engine{
		stores:   stores,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the time source used for lifecycle and decision stamps.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) channelLock(channel string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[channel]
	if !ok {
		l = &sync.Mutex{}
		e.locks[channel] = l
	}
	return l
}

// run opens the channel store and calls fn while holding the channel lock.
func (e *Engine) run(ctx context.Context, channel string, fn func(s *store.Store) error) error {
	l := e.channelLock(channel)
	l.Lock()
	defer l.Unlock()

	s, err := e.stores.Open(ctx, channel)
	if err != nil {
		return err
	}
	return fn(s)
}

// currentMeeting resolves the meeting the channel cursor points at.
func currentMeeting(s *store.Store) (*store.Meeting, error) {
	id, err := s.Cursor(store.SlotMeeting)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w in channel %s", ErrNoCurrentMeeting, s.Channel())
	}
	m, err := s.Meeting(uint64(*id))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: current meeting number %d of channel %s has no row",
			ErrStorageInvariant, *id, s.Channel())
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func orderCursor(s *store.Store, slot store.Slot) (*int, error) {
	v, err := s.Cursor(slot)
	if err != nil || v == nil {
		return nil, err
	}
	order := int(*v)
	return &order, nil
}

func setOrderCursor(s *store.Store, slot store.Slot, order *int) error {
	if order == nil {
		return s.SetCursor(slot, nil)
	}
	v := int64(*order)
	return s.SetCursor(slot, &v)
}

func resetSubCursors(s *store.Store) error {
	if err := s.SetCursor(store.SlotAgenda, nil); err != nil {
		return err
	}
	return s.SetCursor(store.SlotMotion, nil)
}

func (e *Engine) publish(ctx context.Context, n Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		metrics.RecordNotification(n.Type, "failed")
		log.Printf("engine: notification %s for %s failed: %v", n.Type, n.Channel, err)
		return
	}
	metrics.RecordNotification(n.Type, "sent")
}
