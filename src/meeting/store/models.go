package store

import "time"

// Meeting is the scope that owns an agenda and a list of motions. ID keys
// the agenda and motion rows; Number is what the channel sees, counting from
// 1 within each channel.
type Meeting struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement"`
	Channel   string     `gorm:"size:128;not null;uniqueIndex:idx_meeting_channel_number,priority:1"`
	Number    uint64     `gorm:"not null;uniqueIndex:idx_meeting_channel_number,priority:2"`
	Name      string     `gorm:"type:text;not null"`
	StartTime *time.Time `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
	CreatedAt time.Time
}

// AgendaItem is one discussion topic, positioned by ItemOrder.
type AgendaItem struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	MeetingID uint64 `gorm:"not null;index:idx_agenda_meeting_order,priority:1"`
	ItemOrder int    `gorm:"not null;index:idx_agenda_meeting_order,priority:2"`
	ItemText  string `gorm:"type:text;not null"`
}

func (a *AgendaItem) SetPosition(meetingID uint64, order int) {
	a.MeetingID = meetingID
	a.ItemOrder = order
}

// Motion is a proposal put to a vote. The decision columns stay NULL until
// the outcome is recorded.
type Motion struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	MeetingID  uint64     `gorm:"not null;index:idx_motion_meeting_order,priority:1"`
	ItemOrder  int        `gorm:"not null;index:idx_motion_meeting_order,priority:2"`
	MotionText string     `gorm:"type:text;not null"`
	Carries    *bool      `gorm:"column:carries"`
	VotesAye   *int       `gorm:"column:votes_aye"`
	VotesNay   *int       `gorm:"column:votes_nay"`
	DecidedAt  *time.Time `gorm:"column:decided_at"`
}

func (m *Motion) SetPosition(meetingID uint64, order int) {
	m.MeetingID = meetingID
	m.ItemOrder = order
}

// Decided reports whether an outcome has been recorded.
func (m *Motion) Decided() bool { return m.Carries != nil }

// Carried reports whether the motion passed.
func (m *Motion) Carried() bool { return m.Carries != nil && *m.Carries }

// Cursor is one named pointer of a channel, used by StoreCursors.
type Cursor struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Channel string `gorm:"size:128;not null;uniqueIndex:idx_cursor_channel_name,priority:1"`
	Name    string `gorm:"size:16;not null;uniqueIndex:idx_cursor_channel_name,priority:2"`
	Value   *int64
}

// Models lists every table the meeting store migrates.
var Models = []interface{}{
	&Meeting{}, &AgendaItem{}, &Motion{}, &Cursor{},
}
