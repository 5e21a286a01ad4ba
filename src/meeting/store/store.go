package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stake-plus/govmeet/src/meeting/ordered"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = ordered.ErrNotFound
	ErrUnavailable = errors.New("meeting store unavailable")
	ErrInvariant   = errors.New("meeting store invariant violated")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// passthrough keeps the ordered package's sentinels and wraps anything else
// as a storage failure.
func passthrough(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ordered.ErrNotFound),
		errors.Is(err, ordered.ErrEmptyCollection),
		errors.Is(err, ordered.ErrNoMoreItems),
		errors.Is(err, ordered.ErrInvalidOrder):
		return err
	default:
		return unavailable(op, err)
	}
}

var (
	agendaList = ordered.New[AgendaItem]()
	motionList = ordered.New[Motion]()
)

// Store is the meeting data of one channel, bound to one context.
type Store struct {
	db      *gorm.DB
	ctx     context.Context
	channel string
	cursors CursorStore
}

func newStore(ctx context.Context, db *gorm.DB, channel string, cursors CursorStore) *Store {
	return &Store{
		db:      db.WithContext(ctx),
		ctx:     ctx,
		channel: channel,
		cursors: cursors,
	}
}

// Channel returns the channel this store is scoped to.
func (s *Store) Channel() string { return s.channel }

// Transaction runs fn against a Store whose statements all belong to one
// database transaction. Cursor writes to memory or redis are held back and
// applied only after the commit.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	if inDatabase(s.cursors) {
		return s.db.Transaction(func(tx *gorm.DB) error {
			return fn(&Store{db: tx, ctx: s.ctx, channel: s.channel, cursors: s.cursors})
		})
	}

	pending := newPendingCursors(s.cursors)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, ctx: s.ctx, channel: s.channel, cursors: pending})
	})
	if err != nil {
		return err
	}
	return pending.flush(s.ctx, s.db)
}

// Cursor returns the slot value, nil when unset.
func (s *Store) Cursor(slot Slot) (*int64, error) {
	return s.cursors.Get(s.ctx, s.db, s.channel, slot)
}

// SetCursor stores value in slot; nil unsets it.
func (s *Store) SetCursor(slot Slot, value *int64) error {
	return s.cursors.Set(s.ctx, s.db, s.channel, slot, value)
}

// Meetings

// CreateMeeting numbers the new meeting after the channel's highest one.
// Call it inside Transaction so the number and the row commit together.
func (s *Store) CreateMeeting(name string) (*Meeting, error) {
	var max uint64
	err := s.db.Model(&Meeting{}).
		Where("channel = ?", s.channel).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error
	if err != nil {
		return nil, unavailable("next meeting number", err)
	}

	m := Meeting{Channel: s.channel, Number: max + 1, Name: name}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, unavailable("create meeting", err)
	}
	return &m, nil
}

// Meeting looks a meeting up by its number within the channel.
func (s *Store) Meeting(number uint64) (*Meeting, error) {
	var m Meeting
	err := s.db.Where("channel = ? AND number = ?", s.channel, number).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get meeting", err)
	}
	return &m, nil
}

func (s *Store) Meetings() ([]Meeting, error) {
	var meetings []Meeting
	if err := s.db.Where("channel = ?", s.channel).Order("number ASC").Find(&meetings).Error; err != nil {
		return nil, unavailable("list meetings", err)
	}
	return meetings, nil
}

func (s *Store) MarkStarted(id uint64, at time.Time) error {
	return s.updateMeeting(id, "start_time", at)
}

func (s *Store) MarkAdjourned(id uint64, at time.Time) error {
	return s.updateMeeting(id, "end_time", at)
}

func (s *Store) updateMeeting(id uint64, column string, value interface{}) error {
	res := s.db.Model(&Meeting{}).
		Where("id = ? AND channel = ?", id, s.channel).
		UpdateColumn(column, value)
	if res.Error != nil {
		return unavailable("update meeting", res.Error)
	}
	return nil
}

// Agenda

func (s *Store) AddAgendaItem(meetingID uint64, text string) (int, error) {
	order, err := agendaList.Append(s.db, meetingID, &AgendaItem{ItemText: text})
	return order, passthrough("add agenda item", err)
}

func (s *Store) AgendaItems(meetingID uint64) ([]AgendaItem, error) {
	items, err := agendaList.All(s.db, meetingID)
	return items, passthrough("list agenda", err)
}

func (s *Store) AgendaItem(meetingID uint64, order int) (*AgendaItem, error) {
	item, err := agendaList.Get(s.db, meetingID, order)
	return item, passthrough("get agenda item", err)
}

func (s *Store) MaxAgendaOrder(meetingID uint64) (int, error) {
	max, err := agendaList.MaxOrder(s.db, meetingID)
	return max, passthrough("agenda max order", err)
}

// DeleteAgendaItem removes the item and renumbers its successors, returning
// how many items are left.
func (s *Store) DeleteAgendaItem(meetingID uint64, order int) (int, error) {
	remaining, err := agendaList.DeleteAndRenumber(s.db, meetingID, order)
	return remaining, passthrough("delete agenda item", err)
}

func (s *Store) NextAgendaItem(meetingID uint64, current *int) (*AgendaItem, error) {
	_, item, err := agendaList.Advance(s.db, meetingID, current)
	return item, passthrough("next agenda item", err)
}

// Motions

func (s *Store) AddMotion(meetingID uint64, text string) (int, error) {
	order, err := motionList.Append(s.db, meetingID, &Motion{MotionText: text})
	return order, passthrough("add motion", err)
}

func (s *Store) Motions(meetingID uint64) ([]Motion, error) {
	motions, err := motionList.All(s.db, meetingID)
	return motions, passthrough("list motions", err)
}

func (s *Store) Motion(meetingID uint64, order int) (*Motion, error) {
	m, err := motionList.Get(s.db, meetingID, order)
	return m, passthrough("get motion", err)
}

func (s *Store) MaxMotionOrder(meetingID uint64) (int, error) {
	max, err := motionList.MaxOrder(s.db, meetingID)
	return max, passthrough("motion max order", err)
}

func (s *Store) DeleteMotion(meetingID uint64, order int) (int, error) {
	remaining, err := motionList.DeleteAndRenumber(s.db, meetingID, order)
	return remaining, passthrough("delete motion", err)
}

// AmendMotion replaces the text of the motion at order while it is still
// undecided; a decided motion is left as it is.
func (s *Store) AmendMotion(meetingID uint64, order int, text string) error {
	res := s.db.Model(&Motion{}).
		Where("meeting_id = ? AND item_order = ? AND carries IS NULL", meetingID, order).
		UpdateColumn("motion_text", text)
	if res.Error != nil {
		return unavailable("amend motion", res.Error)
	}
	return nil
}

// Decision is the recorded outcome of a vote.
type Decision struct {
	Carries bool
	Aye     int
	Nay     int
	At      time.Time
}

// DecideMotion sets every decision column of an undecided motion in a single
// statement. It reports ErrNotFound when no undecided motion sits at order.
func (s *Store) DecideMotion(meetingID uint64, order int, d Decision) error {
	res := s.db.Model(&Motion{}).
		Where("meeting_id = ? AND item_order = ? AND carries IS NULL", meetingID, order).
		UpdateColumns(map[string]interface{}{
			"carries":    d.Carries,
			"votes_aye":  d.Aye,
			"votes_nay":  d.Nay,
			"decided_at": d.At,
		})
	if res.Error != nil {
		return unavailable("decide motion", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
