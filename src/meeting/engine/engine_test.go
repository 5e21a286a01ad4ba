package engine

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stake-plus/govmeet/src/data"
	"github.com/stake-plus/govmeet/src/meeting/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

var fixedNow = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	provider *store.SharedProvider
	writes   *int64
	notes    []Notification
}

func newHarness(t *testing.T, cursors store.CursorStore) *harness {
	t.Helper()
	db, err := data.ConnectSQLite(filepath.Join(t.TempDir(), "meetings.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var writes int64
	count := func(*gorm.DB) { atomic.AddInt64(&writes, 1) }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("count:create", count))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("count:update", count))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("count:delete", count))

	h := &harness{writes: &writes}
	h.provider = store.NewSharedProvider(db, cursors)
	h.engine = New(h.provider, NotifierFunc(func(_ context.Context, n Notification) error {
		h.notes = append(h.notes, n)
		return nil
	}))
	h.engine.now = func() time.Time { return fixedNow }
	return h
}

func (h *harness) resetWrites() { atomic.StoreInt64(h.writes, 0) }

func (h *harness) writeCount() int64 { return atomic.LoadInt64(h.writes) }

func agendaTexts(t *testing.T, e *Engine, channel string) []string {
	t.Helper()
	items, err := e.AgendaList(context.Background(), channel)
	require.NoError(t, err)
	out := make([]string, 0, len(items))
	for i, it := range items {
		require.Equal(t, i+1, it.Order)
		out = append(out, it.Text)
	}
	return out
}

func TestScenarioAgendaAddDeleteList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	e := h.engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)

	order, err := e.AgendaAdd(ctx, "#board", "Q1 review")
	require.NoError(t, err)
	assert.Equal(t, 1, order)
	order, err = e.AgendaAdd(ctx, "#board", "Q2 review")
	require.NoError(t, err)
	assert.Equal(t, 2, order)

	require.NoError(t, e.AgendaDelete(ctx, "#board", 1))

	items, err := e.AgendaList(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, []AgendaEntry{{Order: 1, Text: "Q2 review"}}, items)
}

func TestScenarioCarriedMotionCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	order, err := e.MotionAdd(ctx, "#board", "Approve budget")
	require.NoError(t, err)
	require.Equal(t, 1, order)

	entry, err := e.MotionDecide(ctx, "#board", Decision{Carries: true, Aye: 5, Nay: 2})
	require.NoError(t, err)
	assert.Equal(t, MotionCarried, entry.State)

	err = e.MotionDelete(ctx, "#board", 1)
	assert.ErrorIs(t, err, ErrCannotDeleteCarriedMotion)

	motions, err := e.MotionList(ctx, "#board")
	require.NoError(t, err)
	require.Len(t, motions, 1)
	assert.Equal(t, "Motion carries, votes 5:2 at 2026-03-14 18:30:00", motions[0].Outcome())
}

func TestRejectedMotionIsDeletable(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	_, err = e.MotionAdd(ctx, "#board", "Buy a boat")
	require.NoError(t, err)
	_, err = e.MotionAdd(ctx, "#board", "Buy a car")
	require.NoError(t, err)

	entry, err := e.MotionDecide(ctx, "#board", Decision{Order: 1, Carries: false, Aye: 1, Nay: 6})
	require.NoError(t, err)
	assert.Equal(t, "Motion dismissed, votes 1:6", entry.Outcome())

	_, err = e.MotionAmend(ctx, "#board", "Buy two cars")
	require.NoError(t, err)

	require.NoError(t, e.MotionDelete(ctx, "#board", 1))

	motions, err := e.MotionList(ctx, "#board")
	require.NoError(t, err)
	require.Len(t, motions, 1)
	assert.Equal(t, 1, motions[0].Order)
	assert.Equal(t, "Buy two cars", motions[0].Text)
	assert.Equal(t, MotionUndecided, motions[0].State)
	assert.Equal(t, "Motion has not been up for vote yet", motions[0].Outcome())
}

func TestDecidedMotionIsImmutable(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)

	_, err = e.MotionAmend(ctx, "#board", "nothing to amend")
	assert.ErrorIs(t, err, ErrNoCurrentMotion)

	_, err = e.MotionAdd(ctx, "#board", "Approve budget")
	require.NoError(t, err)
	order, err := e.MotionAmend(ctx, "#board", "Approve amended budget")
	require.NoError(t, err)
	assert.Equal(t, 1, order)

	_, err = e.MotionDecide(ctx, "#board", Decision{Carries: true, Aye: 3})
	require.NoError(t, err)
	_, err = e.MotionDecide(ctx, "#board", Decision{Carries: false, Nay: 3})
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	_, err = e.MotionAmend(ctx, "#board", "too late")
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	motions, err := e.MotionList(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, "Approve amended budget", motions[0].Text)
}

func TestScenarioNextOnEmptyAgenda(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	_, err = e.Start(ctx, "#board")
	require.NoError(t, err)

	_, err = e.AgendaNext(ctx, "#board")
	assert.ErrorIs(t, err, ErrEmptyCollection)
}

func TestScenarioSwitchToUnknownMeeting(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	prepared, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)

	_, err = e.SwitchTo(ctx, "#board", 42)
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := e.Status(ctx, "#board")
	require.NoError(t, err)
	require.True(t, status.HasMeeting)
	assert.Equal(t, prepared.ID, status.Meeting.ID)

	_, err = e.SwitchTo(ctx, "#board", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGuardsPerformNoWrites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	e := h.engine

	// open the store once so schema creation is not counted
	_, err := e.Status(ctx, "#empty")
	require.NoError(t, err)
	h.resetWrites()

	ops := map[string]func() error{
		"start":         func() error { _, err := e.Start(ctx, "#empty"); return err },
		"adjourn":       func() error { _, err := e.Adjourn(ctx, "#empty"); return err },
		"agenda add":    func() error { _, err := e.AgendaAdd(ctx, "#empty", "x"); return err },
		"agenda list":   func() error { _, err := e.AgendaList(ctx, "#empty"); return err },
		"agenda delete": func() error { return e.AgendaDelete(ctx, "#empty", 1) },
		"agenda next":   func() error { _, err := e.AgendaNext(ctx, "#empty"); return err },
		"motion add":    func() error { _, err := e.MotionAdd(ctx, "#empty", "x"); return err },
		"motion amend":  func() error { _, err := e.MotionAmend(ctx, "#empty", "x"); return err },
		"motion decide": func() error { _, err := e.MotionDecide(ctx, "#empty", Decision{Carries: true}); return err },
		"motion list":   func() error { _, err := e.MotionList(ctx, "#empty"); return err },
		"motion delete": func() error { return e.MotionDelete(ctx, "#empty", 1) },

		// the meeting guard wins over argument validation
		"agenda add blank":       func() error { _, err := e.AgendaAdd(ctx, "#empty", "   "); return err },
		"agenda delete zero":     func() error { return e.AgendaDelete(ctx, "#empty", 0) },
		"motion add blank":       func() error { _, err := e.MotionAdd(ctx, "#empty", ""); return err },
		"motion amend blank":     func() error { _, err := e.MotionAmend(ctx, "#empty", "<b></b>"); return err },
		"motion decide negative": func() error { _, err := e.MotionDecide(ctx, "#empty", Decision{Aye: -1}); return err },
		"motion delete zero":     func() error { return e.MotionDelete(ctx, "#empty", 0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), ErrNoCurrentMeeting)
			assert.Zero(t, h.writeCount())
		})
	}
	assert.Empty(t, h.notes)
}

func TestAgendaCursorFollowsDeletion(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	for _, s := range []string{"one", "two", "three", "four"} {
		_, err := e.AgendaAdd(ctx, "#board", s)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := e.AgendaNext(ctx, "#board")
		require.NoError(t, err)
	}

	// cursor 3 is above the deleted slot and moves with its item
	require.NoError(t, e.AgendaDelete(ctx, "#board", 1))
	cur, err := e.AgendaCurrent(ctx, "#board")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, AgendaEntry{Order: 2, Text: "three"}, *cur)

	// cursor on the deleted slot stays on the slot
	require.NoError(t, e.AgendaDelete(ctx, "#board", 2))
	cur, err = e.AgendaCurrent(ctx, "#board")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, AgendaEntry{Order: 2, Text: "four"}, *cur)

	_, err = e.AgendaNext(ctx, "#board")
	assert.ErrorIs(t, err, ErrNoMoreItems)

	err = e.AgendaDelete(ctx, "#board", 3)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.AgendaDelete(ctx, "#board", 1))
	require.NoError(t, e.AgendaDelete(ctx, "#board", 1))
	assert.Empty(t, agendaTexts(t, e, "#board"))

	// the agenda emptied, so the cursor was cleared and next starts over
	cur, err = e.AgendaCurrent(ctx, "#board")
	require.NoError(t, err)
	assert.Nil(t, cur)
	_, err = e.AgendaAdd(ctx, "#board", "five")
	require.NoError(t, err)
	next, err := e.AgendaNext(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, AgendaEntry{Order: 1, Text: "five"}, next)
}

func TestMotionCursorFollowsDeletion(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	for _, s := range []string{"m1", "m2", "m3"} {
		_, err := e.MotionAdd(ctx, "#board", s)
		require.NoError(t, err)
	}

	// current motion is m3 (order 3); deleting 1 shifts it to 2
	require.NoError(t, e.MotionDelete(ctx, "#board", 1))
	order, err := e.MotionAmend(ctx, "#board", "m3 amended")
	require.NoError(t, err)
	assert.Equal(t, 2, order)

	motions, err := e.MotionList(ctx, "#board")
	require.NoError(t, err)
	require.Len(t, motions, 2)
	assert.Equal(t, "m2", motions[0].Text)
	assert.Equal(t, "m3 amended", motions[1].Text)

	err = e.MotionDelete(ctx, "#board", 5)
	assert.ErrorIs(t, err, ErrNotFound)
	err = e.MotionDelete(ctx, "#board", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStartResetsCursorsAndSwitchDoesNot(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	first, err := e.Prepare(ctx, "#board", "First")
	require.NoError(t, err)
	second, err := e.Prepare(ctx, "#board", "Second")
	require.NoError(t, err)

	_, err = e.SwitchTo(ctx, "#board", int64(first.ID))
	require.NoError(t, err)
	_, err = e.AgendaAdd(ctx, "#board", "a")
	require.NoError(t, err)
	_, err = e.AgendaAdd(ctx, "#board", "b")
	require.NoError(t, err)
	next, err := e.AgendaNext(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Order)

	// switching away and back keeps the agenda cursor
	_, err = e.SwitchTo(ctx, "#board", int64(second.ID))
	require.NoError(t, err)
	_, err = e.SwitchTo(ctx, "#board", int64(first.ID))
	require.NoError(t, err)
	next, err = e.AgendaNext(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, 2, next.Order)

	summary, err := e.Start(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, summary.Phase)
	assert.Equal(t, "First", summary.Name)
	next, err = e.AgendaNext(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Order)
}

func TestLifecyclePhasesAndNotifications(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	e := h.engine

	status, err := e.Status(ctx, "#board")
	require.NoError(t, err)
	assert.False(t, status.HasMeeting)

	prepared, err := e.Prepare(ctx, "#board", "  <b>Budget</b>  ")
	require.NoError(t, err)
	assert.Equal(t, "Budget", prepared.Name)
	assert.Equal(t, PhaseNotStarted, prepared.Phase)

	// adjourning a meeting that never started is allowed
	adjourned, err := e.Adjourn(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, PhaseAdjourned, adjourned.Phase)
	require.NotNil(t, adjourned.Notification)

	started, err := e.Start(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, PhaseAdjourned, started.Phase)
	require.NotNil(t, started.StartTime)
	assert.True(t, started.StartTime.Equal(fixedNow))

	require.Len(t, h.notes, 2)
	for _, n := range h.notes {
		assert.Equal(t, NotificationTopic, n.Type)
		assert.Equal(t, "#board", n.Channel)
		assert.Equal(t, "Budget", n.Text)
		assert.NotEmpty(t, n.ID)
	}

	status, err = e.Status(ctx, "#board")
	require.NoError(t, err)
	assert.True(t, status.HasMeeting)
	assert.Equal(t, PhaseAdjourned, status.Meeting.Phase)

	meetings, err := e.Meetings(ctx, "#board")
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, prepared.ID, meetings[0].ID)
}

func TestChannelsAreIsolated(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	a, err := e.Prepare(ctx, "#a", "Alpha")
	require.NoError(t, err)
	_, err = e.AgendaAdd(ctx, "#a", "only in a")
	require.NoError(t, err)

	_, err = e.SwitchTo(ctx, "#b", int64(a.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := e.Prepare(ctx, "#b", "Beta")
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.ID)
	assert.EqualValues(t, 1, b.ID)
	assert.Empty(t, agendaTexts(t, e, "#b"))

	switched, err := e.SwitchTo(ctx, "#b", 1)
	require.NoError(t, err)
	assert.Equal(t, "Beta", switched.Name)
	second, err := e.Prepare(ctx, "#a", "Alpha again")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.ID)
	assert.Equal(t, []string{"only in a"}, agendaTexts(t, e, "#a"))
}

func TestMemoryCursors(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, store.NewMemoryCursors()).engine

	_, err := e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)
	_, err = e.AgendaAdd(ctx, "#board", "a")
	require.NoError(t, err)
	next, err := e.AgendaNext(ctx, "#board")
	require.NoError(t, err)
	assert.Equal(t, 1, next.Order)
	_, err = e.AgendaNext(ctx, "#board")
	assert.ErrorIs(t, err, ErrNoMoreItems)
}

func TestDanglingMeetingCursorIsAnInvariantViolation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	s, err := h.provider.Open(ctx, "#board")
	require.NoError(t, err)
	missing := int64(99)
	require.NoError(t, s.SetCursor(store.SlotMeeting, &missing))

	_, err = h.engine.Status(ctx, "#board")
	assert.ErrorIs(t, err, ErrStorageInvariant)
	assert.True(t, IsInternal(err))

	_, err = h.engine.AgendaAdd(ctx, "#board", "x")
	assert.ErrorIs(t, err, ErrStorageInvariant)
}

func TestInvalidArguments(t *testing.T) {
	ctx := context.Background()
	e := newHarness(t, nil).engine

	_, err := e.Prepare(ctx, "#board", "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.Prepare(ctx, "#board", "Budget")
	require.NoError(t, err)

	_, err = e.AgendaAdd(ctx, "#board", "<p></p>")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = e.AgendaDelete(ctx, "#board", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.MotionDecide(ctx, "#board", Decision{Aye: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
