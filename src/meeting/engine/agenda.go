package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/stake-plus/govmeet/src/meeting/ordered"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

// AgendaEntry is one agenda item as shown to the channel.
type AgendaEntry struct {
	Order int
	Text  string
}

// AgendaAdd appends an item to the agenda of the current meeting.
func (e *Engine) AgendaAdd(ctx context.Context, channel, text string) (int, error) {
	var order int
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		text, err := cleanText("agenda text", text)
		if err != nil {
			return err
		}
		order, err = s.AddAgendaItem(m.ID, text)
		return err
	})
	return order, err
}

// AgendaList returns the agenda of the current meeting in order.
func (e *Engine) AgendaList(ctx context.Context, channel string) ([]AgendaEntry, error) {
	var out []AgendaEntry
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		items, err := s.AgendaItems(m.ID)
		if err != nil {
			return err
		}
		out = make([]AgendaEntry, 0, len(items))
		for _, it := range items {
			out = append(out, AgendaEntry{Order: it.ItemOrder, Text: it.ItemText})
		}
		return nil
	})
	return out, err
}

// AgendaDelete removes an item, renumbers the ones after it and keeps the
// agenda cursor on the same slot (or on the same item when it was shifted).
func (e *Engine) AgendaDelete(ctx context.Context, channel string, order int) error {
	return e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		if order <= 0 {
			return fmt.Errorf("%w: agenda item %d must be positive", ErrInvalidArgument, order)
		}
		return s.Transaction(func(tx *store.Store) error {
			remaining, err := tx.DeleteAgendaItem(m.ID, order)
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: agenda item %d", ErrNotFound, order)
			}
			if err != nil {
				return err
			}
			cur, err := orderCursor(tx, store.SlotAgenda)
			if err != nil {
				return err
			}
			return setOrderCursor(tx, store.SlotAgenda, ordered.AdjustCursor(cur, order, remaining))
		})
	})
}

// AgendaNext moves the agenda cursor to the following item and returns it.
// An empty agenda yields ErrEmptyCollection, the end of it ErrNoMoreItems.
func (e *Engine) AgendaNext(ctx context.Context, channel string) (AgendaEntry, error) {
	var out AgendaEntry
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		return s.Transaction(func(tx *store.Store) error {
			cur, err := orderCursor(tx, store.SlotAgenda)
			if err != nil {
				return err
			}
			item, err := tx.NextAgendaItem(m.ID, cur)
			if err != nil {
				if errors.Is(err, ErrEmptyCollection) || errors.Is(err, ErrNoMoreItems) {
					return fmt.Errorf("agenda of meeting %d: %w", m.ID, err)
				}
				return err
			}
			if err := setOrderCursor(tx, store.SlotAgenda, &item.ItemOrder); err != nil {
				return err
			}
			out = AgendaEntry{Order: item.ItemOrder, Text: item.ItemText}
			return nil
		})
	})
	return out, err
}

// AgendaCurrent returns the item the agenda cursor points at, if any.
func (e *Engine) AgendaCurrent(ctx context.Context, channel string) (*AgendaEntry, error) {
	var out *AgendaEntry
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		cur, err := orderCursor(s, store.SlotAgenda)
		if err != nil || cur == nil {
			return err
		}
		item, err := s.AgendaItem(m.ID, *cur)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &AgendaEntry{Order: item.ItemOrder, Text: item.ItemText}
		return nil
	})
	return out, err
}
