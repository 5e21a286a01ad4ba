package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stake-plus/govmeet/src/meeting/store"
)

// Phase is derived from which lifecycle timestamps are set.
type Phase string

const (
	PhaseNotStarted Phase = "not started"
	PhaseInProgress Phase = "in progress"
	PhaseAdjourned  Phase = "adjourned"
)

func phaseOf(m *store.Meeting) Phase {
	switch {
	case m.EndTime != nil:
		return PhaseAdjourned
	case m.StartTime != nil:
		return PhaseInProgress
	default:
		return PhaseNotStarted
	}
}

// MeetingSummary describes a meeting after an operation.
type MeetingSummary struct {
	// ID is the meeting number within the channel.
	ID        uint64
	Channel   string
	Name      string
	Phase     Phase
	StartTime *time.Time
	EndTime   *time.Time
	// Notification is set by Start and Adjourn.
	Notification *Notification
}

func summarize(m *store.Meeting) MeetingSummary {
	return MeetingSummary{
		ID:        m.Number,
		Channel:   m.Channel,
		Name:      m.Name,
		Phase:     phaseOf(m),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
}

// StatusReport is the answer to status; HasMeeting is false when the channel
// has no current meeting.
type StatusReport struct {
	Channel    string
	HasMeeting bool
	Meeting    MeetingSummary
}

// Prepare creates a meeting and makes it current for the channel.
func (e *Engine) Prepare(ctx context.Context, channel, name string) (MeetingSummary, error) {
	name, err := cleanText("meeting name", name)
	if err != nil {
		return MeetingSummary{}, err
	}

	var out MeetingSummary
	err = e.run(ctx, channel, func(s *store.Store) error {
		return s.Transaction(func(tx *store.Store) error {
			m, err := tx.CreateMeeting(name)
			if err != nil {
				return err
			}
			id := int64(m.Number)
			if err := tx.SetCursor(store.SlotMeeting, &id); err != nil {
				return err
			}
			if err := resetSubCursors(tx); err != nil {
				return err
			}
			out = summarize(m)
			return nil
		})
	})
	return out, err
}

// Start stamps the start time of the current meeting (overwriting an earlier
// one) and clears the agenda and motion cursors.
func (e *Engine) Start(ctx context.Context, channel string) (MeetingSummary, error) {
	return e.stamp(ctx, channel, func(tx *store.Store, m *store.Meeting, at time.Time) error {
		if err := tx.MarkStarted(m.ID, at); err != nil {
			return err
		}
		m.StartTime = &at
		return resetSubCursors(tx)
	})
}

// Adjourn stamps the end time of the current meeting. It does not require
// the meeting to have been started.
func (e *Engine) Adjourn(ctx context.Context, channel string) (MeetingSummary, error) {
	return e.stamp(ctx, channel, func(tx *store.Store, m *store.Meeting, at time.Time) error {
		if err := tx.MarkAdjourned(m.ID, at); err != nil {
			return err
		}
		m.EndTime = &at
		return nil
	})
}

func (e *Engine) stamp(ctx context.Context, channel string, apply func(tx *store.Store, m *store.Meeting, at time.Time) error) (MeetingSummary, error) {
	var out MeetingSummary
	err := e.run(ctx, channel, func(s *store.Store) error {
		return s.Transaction(func(tx *store.Store) error {
			m, err := currentMeeting(tx)
			if err != nil {
				return err
			}
			if err := apply(tx, m, e.now()); err != nil {
				return err
			}
			out = summarize(m)
			return nil
		})
	})
	if err != nil {
		return MeetingSummary{}, err
	}

	n := newTopicNotification(channel, out.Name, e.now())
	out.Notification = &n
	e.publish(ctx, n)
	return out, nil
}

// SwitchTo makes an existing meeting of the channel current. The agenda and
// motion cursors are left untouched.
func (e *Engine) SwitchTo(ctx context.Context, channel string, id int64) (MeetingSummary, error) {
	if id <= 0 {
		return MeetingSummary{}, fmt.Errorf("%w: meeting id %d must be positive", ErrInvalidArgument, id)
	}

	var out MeetingSummary
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := s.Meeting(uint64(id))
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: meeting id %d in channel %s", ErrNotFound, id, channel)
		}
		if err != nil {
			return err
		}
		if err := s.SetCursor(store.SlotMeeting, &id); err != nil {
			return err
		}
		out = summarize(m)
		return nil
	})
	return out, err
}

// Status reports the current meeting and its phase.
func (e *Engine) Status(ctx context.Context, channel string) (StatusReport, error) {
	report := StatusReport{Channel: channel}
	err := e.run(ctx, channel, func(s *store.Store) error {
		m, err := currentMeeting(s)
		if errors.Is(err, ErrNoCurrentMeeting) {
			return nil
		}
		if err != nil {
			return err
		}
		report.HasMeeting = true
		report.Meeting = summarize(m)
		return nil
	})
	return report, err
}

// Meetings lists every meeting recorded for the channel, oldest first.
func (e *Engine) Meetings(ctx context.Context, channel string) ([]MeetingSummary, error) {
	var out []MeetingSummary
	err := e.run(ctx, channel, func(s *store.Store) error {
		meetings, err := s.Meetings()
		if err != nil {
			return err
		}
		out = make([]MeetingSummary, 0, len(meetings))
		for i := range meetings {
			out = append(out, summarize(&meetings[i]))
		}
		return nil
	})
	return out, err
}
