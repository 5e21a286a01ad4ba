package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Slot names one of the three per-channel pointers.
type Slot string

const (
	SlotMeeting Slot = "meeting"
	SlotAgenda  Slot = "agenda"
	SlotMotion  Slot = "motion"
)

// CursorStore persists the per-channel pointers. db is the handle of the
// operation in progress so that strategies living in the database take part
// in its transaction; other strategies ignore it.
type CursorStore interface {
	Get(ctx context.Context, db *gorm.DB, channel string, slot Slot) (*int64, error)
	Set(ctx context.Context, db *gorm.DB, channel string, slot Slot, value *int64) error
}

// StoreCursors keeps pointers in the cursors table next to the meeting data.
type StoreCursors struct{}

func (StoreCursors) Get(ctx context.Context, db *gorm.DB, channel string, slot Slot) (*int64, error) {
	var cur Cursor
	err := db.WithContext(ctx).
		Where("channel = ? AND name = ?", channel, string(slot)).
		Take(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get cursor", err)
	}
	return cur.Value, nil
}

func (StoreCursors) Set(ctx context.Context, db *gorm.DB, channel string, slot Slot, value *int64) error {
	cur := Cursor{Channel: channel, Name: string(slot), Value: value}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&cur).Error
	if err != nil {
		return unavailable("set cursor", err)
	}
	return nil
}

// MemoryCursors keeps pointers in process memory; they are lost on restart.
type MemoryCursors struct {
	mu     sync.RWMutex
	values map[string]map[Slot]int64
}

func NewMemoryCursors() *MemoryCursors {
	return &MemoryCursors{values: make(map[string]map[Slot]int64)}
}

func (m *MemoryCursors) Get(_ context.Context, _ *gorm.DB, channel string, slot Slot) (*int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[channel][slot]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryCursors) Set(_ context.Context, _ *gorm.DB, channel string, slot Slot, value *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		delete(m.values[channel], slot)
		return nil
	}
	slots := m.values[channel]
	if slots == nil {
		slots = make(map[Slot]int64)
		m.values[channel] = slots
	}
	slots[slot] = *value
	return nil
}

const redisCursorPrefix = "govmeet:cursor:"

// RedisCursors keeps pointers in one redis hash per channel so several bot
// processes can share them without a shared SQL database.
type RedisCursors struct {
	rdb *redis.Client
}

func NewRedisCursors(rdb *redis.Client) *RedisCursors {
	return &RedisCursors{rdb: rdb}
}

func (r *RedisCursors) Get(ctx context.Context, _ *gorm.DB, channel string, slot Slot) (*int64, error) {
	raw, err := r.rdb.HGet(ctx, redisCursorPrefix+channel, string(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get cursor", err)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: cursor %s of %s holds %q", ErrInvariant, slot, channel, raw)
	}
	return &v, nil
}

func (r *RedisCursors) Set(ctx context.Context, _ *gorm.DB, channel string, slot Slot, value *int64) error {
	key := redisCursorPrefix + channel
	var err error
	if value == nil {
		err = r.rdb.HDel(ctx, key, string(slot)).Err()
	} else {
		err = r.rdb.HSet(ctx, key, string(slot), *value).Err()
	}
	if err != nil {
		return unavailable("set cursor", err)
	}
	return nil
}

// inDatabase reports whether the strategy writes through the transaction
// handle it is given.
func inDatabase(c CursorStore) bool {
	_, ok := c.(StoreCursors)
	return ok
}

type cursorKey struct {
	channel string
	slot    Slot
}

// pendingCursors buffers writes for a strategy outside the database until
// the transaction has committed. Reads see the buffered values first.
type pendingCursors struct {
	base   CursorStore
	values map[cursorKey]*int64
	order  []cursorKey
}

func newPendingCursors(base CursorStore) *pendingCursors {
	return &pendingCursors{base: base, values: make(map[cursorKey]*int64)}
}

func (p *pendingCursors) Get(ctx context.Context, db *gorm.DB, channel string, slot Slot) (*int64, error) {
	if v, ok := p.values[cursorKey{channel, slot}]; ok {
		if v == nil {
			return nil, nil
		}
		out := *v
		return &out, nil
	}
	return p.base.Get(ctx, db, channel, slot)
}

func (p *pendingCursors) Set(_ context.Context, _ *gorm.DB, channel string, slot Slot, value *int64) error {
	k := cursorKey{channel, slot}
	if _, seen := p.values[k]; !seen {
		p.order = append(p.order, k)
	}
	if value == nil {
		p.values[k] = nil
		return nil
	}
	v := *value
	p.values[k] = &v
	return nil
}

func (p *pendingCursors) flush(ctx context.Context, db *gorm.DB) error {
	for _, k := range p.order {
		if err := p.base.Set(ctx, db, k.channel, k.slot, p.values[k]); err != nil {
			return fmt.Errorf("flush cursor %s of %s: %w", k.slot, k.channel, err)
		}
	}
	return nil
}
