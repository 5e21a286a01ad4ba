package webserver

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/govmeet/src/meeting/commands"
	"github.com/stake-plus/govmeet/src/meeting/engine"
)

type Meetings struct {
	engine     *engine.Engine
	dispatcher *commands.Dispatcher
}

func NewMeetings(e *engine.Engine, d *commands.Dispatcher) Meetings {
	return Meetings{engine: e, dispatcher: d}
}

type meetingJSON struct {
	ID        uint64     `json:"id"`
	Channel   string     `json:"channel"`
	Name      string     `json:"name"`
	Phase     string     `json:"phase"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

func toMeetingJSON(m engine.MeetingSummary) meetingJSON {
	return meetingJSON{
		ID:        m.ID,
		Channel:   m.Channel,
		Name:      m.Name,
		Phase:     string(m.Phase),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
}

type motionJSON struct {
	Order     int        `json:"order"`
	Text      string     `json:"text"`
	State     string     `json:"state"`
	Aye       int        `json:"aye"`
	Nay       int        `json:"nay"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	Outcome   string     `json:"outcome"`
}

func toMotionJSON(m engine.MotionEntry) motionJSON {
	return motionJSON{
		Order:     m.Order,
		Text:      m.Text,
		State:     string(m.State),
		Aye:       m.Aye,
		Nay:       m.Nay,
		DecidedAt: m.DecidedAt,
		Outcome:   m.Outcome(),
	}
}

func channelParam(c *gin.Context) (string, bool) {
	channel := strings.TrimSpace(c.Param("channel"))
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "channel is required"})
		return "", false
	}
	return channel, true
}

// writeError maps engine errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNoCurrentMeeting),
		errors.Is(err, engine.ErrNoCurrentMotion),
		errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyDecided),
		errors.Is(err, engine.ErrCannotDeleteCarriedMotion),
		errors.Is(err, engine.ErrEmptyCollection),
		errors.Is(err, engine.ErrNoMoreItems):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"err": "internal error"})
		return
	}
	c.JSON(status, gin.H{"err": err.Error()})
}

func (m Meetings) Status(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	st, err := m.engine.Status(c.Request.Context(), channel)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"channel": st.Channel, "has_meeting": st.HasMeeting}
	if st.HasMeeting {
		resp["meeting"] = toMeetingJSON(st.Meeting)
		if cur, err := m.engine.AgendaCurrent(c.Request.Context(), channel); err == nil && cur != nil {
			resp["agenda_item"] = gin.H{"order": cur.Order, "text": cur.Text}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (m Meetings) List(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	list, err := m.engine.Meetings(c.Request.Context(), channel)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]meetingJSON, 0, len(list))
	for _, s := range list {
		out = append(out, toMeetingJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"meetings": out})
}

func (m Meetings) Agenda(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	items, err := m.engine.AgendaList(c.Request.Context(), channel)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{"order": it.Order, "text": it.Text})
	}
	c.JSON(http.StatusOK, gin.H{"agenda": out})
}

func (m Meetings) Motions(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	motions, err := m.engine.MotionList(c.Request.Context(), channel)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]motionJSON, 0, len(motions))
	for _, mo := range motions {
		out = append(out, toMotionJSON(mo))
	}
	c.JSON(http.StatusOK, gin.H{"motions": out})
}

// Command runs a text command exactly as the chat front end would.
func (m Meetings) Command(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	reply := m.dispatcher.Handle(c.Request.Context(), channel, req.Command)
	status := http.StatusOK
	if reply.Error {
		status = http.StatusUnprocessableEntity
	}
	resp := gin.H{"lines": reply.Lines, "error": reply.Error}
	if reply.Notification != nil {
		resp["notification"] = reply.Notification
	}
	c.JSON(status, resp)
}

func (m Meetings) Decide(c *gin.Context) {
	channel, ok := channelParam(c)
	if !ok {
		return
	}
	var req struct {
		Carries *bool `json:"carries" binding:"required"`
		Aye     *int  `json:"aye" binding:"required"`
		Nay     *int  `json:"nay" binding:"required"`
		Motion  int   `json:"motion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	entry, err := m.engine.MotionDecide(c.Request.Context(), channel, engine.Decision{
		Order:   req.Motion,
		Carries: *req.Carries,
		Aye:     *req.Aye,
		Nay:     *req.Nay,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"motion": toMotionJSON(entry)})
}
