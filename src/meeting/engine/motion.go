package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stake-plus/govmeet/src/meeting/ordered"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

// MotionState is the decision state of a motion.
type MotionState string

const (
	MotionUndecided MotionState = "undecided"
	MotionCarried   MotionState = "carried"
	MotionRejected  MotionState = "rejected"
)

// MotionEntry is one motion as shown to the channel.
type MotionEntry struct {
	Order     int
	Text      string
	State     MotionState
	Aye       int
	Nay       int
	DecidedAt *time.Time
}

func motionEntry(m *store.Motion) MotionEntry {
	entry := MotionEntry{
		Order:     m.ItemOrder,
		Text:      m.MotionText,
		State:     MotionUndecided,
		DecidedAt: m.DecidedAt,
	}
	if m.Carries == nil {
		return entry
	}
	entry.State = MotionRejected
	if *m.Carries {
		entry.State = MotionCarried
	}
	if m.VotesAye != nil {
		entry.Aye = *m.VotesAye
	}
	if m.VotesNay != nil {
		entry.Nay = *m.VotesNay
	}
	return entry
}

// Outcome renders the decision state the way it is listed in the channel.
func (m MotionEntry) Outcome() string {
	switch m.State {
	case MotionCarried:
		at := ""
		if m.DecidedAt != nil {
			at = m.DecidedAt.UTC().Format("2006-01-02 15:04:05")
		}
		return fmt.Sprintf("Motion carries, votes %d:%d at %s", m.Aye, m.Nay, at)
	case MotionRejected:
		return fmt.Sprintf("Motion dismissed, votes %d:%d", m.Aye, m.Nay)
	default:
		return "Motion has not been up for vote yet"
	}
}

// Decision is a vote outcome to record. Order 0 means the current motion.
type Decision struct {
	Order   int
	Carries bool
	Aye     int
	Nay     int
}

// MotionAdd appends an undecided motion and makes it the current motion.
func (e *Engine) MotionAdd(ctx context.Context, channel, text string) (int, error) {
	var order int
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		text, err := cleanText("motion text", text)
		if err != nil {
			return err
		}
		return s.Transaction(func(tx *store.Store) error {
			order, err = tx.AddMotion(m.ID, text)
			if err != nil {
				return err
			}
			return setOrderCursor(tx, store.SlotMotion, &order)
		})
	})
	return order, err
}

// currentMotion loads the motion the motion cursor points at.
func currentMotion(s *store.Store, meetingID uint64) (*store.Motion, error) {
	cur, err := orderCursor(s, store.SlotMotion)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w in meeting %d", ErrNoCurrentMotion, meetingID)
	}
	motion, err := s.Motion(meetingID, *cur)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: current motion %d", ErrNotFound, *cur)
	}
	return motion, err
}

// MotionAmend replaces the text of the current motion while it is undecided.
func (e *Engine) MotionAmend(ctx context.Context, channel, text string) (int, error) {
	var order int
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		text, err := cleanText("motion text", text)
		if err != nil {
			return err
		}
		return s.Transaction(func(tx *store.Store) error {
			motion, err := currentMotion(tx, m.ID)
			if err != nil {
				return err
			}
			if motion.Decided() {
				return fmt.Errorf("%w: motion %d", ErrAlreadyDecided, motion.ItemOrder)
			}
			order = motion.ItemOrder
			return tx.AmendMotion(m.ID, motion.ItemOrder, text)
		})
	})
	return order, err
}

// MotionDecide records the outcome of a vote on a motion. A decided motion
// cannot be decided again.
func (e *Engine) MotionDecide(ctx context.Context, channel string, d Decision) (MotionEntry, error) {
	var out MotionEntry
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		if d.Aye < 0 || d.Nay < 0 {
			return fmt.Errorf("%w: vote counts %d:%d must not be negative", ErrInvalidArgument, d.Aye, d.Nay)
		}
		if d.Order < 0 {
			return fmt.Errorf("%w: motion %d must be positive", ErrInvalidArgument, d.Order)
		}
		return s.Transaction(func(tx *store.Store) error {
			var motion *store.Motion
			if d.Order == 0 {
				motion, err = currentMotion(tx, m.ID)
			} else {
				motion, err = tx.Motion(m.ID, d.Order)
				if errors.Is(err, ErrNotFound) {
					err = fmt.Errorf("%w: motion %d", ErrNotFound, d.Order)
				}
			}
			if err != nil {
				return err
			}
			if motion.Decided() {
				return fmt.Errorf("%w: motion %d", ErrAlreadyDecided, motion.ItemOrder)
			}

			at := e.now()
			err = tx.DecideMotion(m.ID, motion.ItemOrder, store.Decision{
				Carries: d.Carries,
				Aye:     d.Aye,
				Nay:     d.Nay,
				At:      at,
			})
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: motion %d", ErrAlreadyDecided, motion.ItemOrder)
			}
			if err != nil {
				return err
			}
			motion.Carries, motion.VotesAye, motion.VotesNay, motion.DecidedAt = &d.Carries, &d.Aye, &d.Nay, &at
			out = motionEntry(motion)
			return nil
		})
	})
	return out, err
}

// MotionList returns the motions of the current meeting in order.
func (e *Engine) MotionList(ctx context.Context, channel string) ([]MotionEntry, error) {
	var out []MotionEntry
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		motions, err := s.Motions(m.ID)
		if err != nil {
			return err
		}
		out = make([]MotionEntry, 0, len(motions))
		for i := range motions {
			out = append(out, motionEntry(&motions[i]))
		}
		return nil
	})
	return out, err
}

// MotionDelete removes a motion that has not carried, renumbers the ones
// after it and adjusts the motion cursor.
func (e *Engine) MotionDelete(ctx context.Context, channel string, order int) error {
	return e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if err != nil {
			return err
		}
		if order <= 0 {
			return fmt.Errorf("%w: motion %d must be positive", ErrInvalidArgument, order)
		}
		return s.Transaction(func(tx *store.Store) error {
			max, err := tx.MaxMotionOrder(m.ID)
			if err != nil {
				return err
			}
			if order > max {
				return fmt.Errorf("%w: motion %d", ErrNotFound, order)
			}
			motion, err := tx.Motion(m.ID, order)
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: motion %d has no row below max order %d", ErrStorageInvariant, order, max)
			}
			if err != nil {
				return err
			}
			if motion.Carried() {
				return fmt.Errorf("%w: motion %d", ErrCannotDeleteCarriedMotion, order)
			}

			remaining, err := tx.DeleteMotion(m.ID, order)
			if err != nil {
				return err
			}
			cur, err := orderCursor(tx, store.SlotMotion)
			if err != nil {
				return err
			}
			return setOrderCursor(tx, store.SlotMotion, ordered.AdjustCursor(cur, order, remaining))
		})
	})
}
