// Package commands turns a channel command line into an engine call and
// renders the reply text. Every front end goes through Dispatcher.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/stake-plus/govmeet/src/meeting/engine"
	"github.com/stake-plus/govmeet/src/metrics"
)

// Reply is what a front end sends back to the channel.
type Reply struct {
	Lines []string
	// Error marks replies produced from a failed command.
	Error bool
	// Notification is set when the command asks the front end to act, e.g.
	// to change the channel topic.
	Notification *engine.Notification
}

// Text joins the reply lines.
func (r Reply) Text() string { return strings.Join(r.Lines, "\n") }

func reply(format string, args ...interface{}) Reply {
	return Reply{Lines: []string{fmt.Sprintf(format, args...)}}
}

func replyError(format string, args ...interface{}) Reply {
	return Reply{Lines: []string{fmt.Sprintf(format, args...)}, Error: true}
}

// Dispatcher executes text commands against an engine.
type Dispatcher struct {
	engine *engine.Engine
	source string
}

// NewDispatcher returns a dispatcher; source labels metrics ("discord", "http", "cli").
func NewDispatcher(e *engine.Engine, source string) *Dispatcher {
	return &Dispatcher{engine: e, source: source}
}

// Mutating reports whether line names a command that changes meeting state.
func Mutating(line string) bool {
	name, _ := commandName(strings.Fields(line))
	switch name {
	case "", "help", "status", "meetings", "agenda list", "motion list":
		return false
	default:
		return true
	}
}

func commandName(fields []string) (string, []string) {
	if len(fields) == 0 {
		return "", nil
	}
	verb := strings.ToLower(fields[0])
	if (verb == "agenda" || verb == "motion") && len(fields) > 1 {
		return verb + " " + strings.ToLower(fields[1]), fields[2:]
	}
	return verb, fields[1:]
}

// Handle runs one command line for channel.
func (d *Dispatcher) Handle(ctx context.Context, channel, line string) Reply {
	started := time.Now()
	fields := strings.Fields(line)
	name, args := commandName(fields)

	r, err := d.dispatch(ctx, channel, name, args, restOf(line, len(fields)-len(args)))
	if err != nil {
		r = d.renderError(channel, name, err)
	}

	label, outcome := name, "ok"
	switch {
	case name == "":
		label = "help"
	case errors.Is(err, errUnknownCommand):
		label = "unknown"
	}
	switch {
	case engine.IsInternal(err):
		outcome = "error"
	case r.Error:
		outcome = "rejected"
	}
	metrics.RecordCommand(label, d.source, outcome, time.Since(started).Seconds())
	return r
}

// restOf returns line with its first n words removed, keeping inner spacing.
func restOf(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

func usage(text string) error { return fmt.Errorf("%w: %s", errUsage, text) }

func (d *Dispatcher) dispatch(ctx context.Context, channel, name string, args []string, text string) (Reply, error) {
	e := d.engine
	switch name {
	case "help", "":
		return Reply{Lines: helpLines}, nil

	case "prepare":
		if text == "" {
			return Reply{}, usage("prepare <meeting name>")
		}
		m, err := e.Prepare(ctx, channel, text)
		if err != nil {
			return Reply{}, err
		}
		return reply("Meeting initialised, meeting id %d on channel %s", m.ID, channel), nil

	case "start":
		m, err := e.Start(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		r := reply("The meeting has started. Meeting topic: %s (meeting id %d)", m.Name, m.ID)
		r.Notification = m.Notification
		return r, nil

	case "adjourn":
		m, err := e.Adjourn(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		r := reply("The meeting has adjourned. Meeting topic: %s (meeting id %d)", m.Name, m.ID)
		r.Notification = m.Notification
		return r, nil

	case "switchid":
		if len(args) != 1 {
			return Reply{}, usage("switchid <meeting id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: meeting id %q is not a number", engine.ErrInvalidArgument, args[0])
		}
		m, err := e.SwitchTo(ctx, channel, id)
		if errors.Is(err, engine.ErrNotFound) {
			return replyError("Cannot switch - meeting id %d doesn't belong in channel %s or is invalid", id, channel), nil
		}
		if err != nil {
			return Reply{}, err
		}
		return reply("Switched to meeting id %d, meeting name %s", m.ID, m.Name), nil

	case "status":
		st, err := e.Status(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		return renderStatus(st), nil

	case "meetings":
		meetings, err := e.Meetings(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		if len(meetings) == 0 {
			return reply("Channel %s has no meetings", channel), nil
		}
		r := Reply{}
		for _, m := range meetings {
			r.Lines = append(r.Lines, fmt.Sprintf("Meeting %d: %s (%s)", m.ID, m.Name, m.Phase))
		}
		return r, nil

	case "agenda add":
		if text == "" {
			return Reply{}, usage("agenda add <text>")
		}
		order, err := e.AgendaAdd(ctx, channel, text)
		if err != nil {
			return Reply{}, err
		}
		return reply("Agenda item %d added to the current meeting", order), nil

	case "agenda list":
		items, err := e.AgendaList(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		if len(items) == 0 {
			return reply("The current meeting does not have an agenda yet"), nil
		}
		r := Reply{}
		for _, it := range items {
			r.Lines = append(r.Lines, fmt.Sprintf("Item %d: %s", it.Order, it.Text))
		}
		return r, nil

	case "agenda delete":
		order, err := parseOrder(args, "agenda delete <item number>")
		if err != nil {
			return Reply{}, err
		}
		if err := e.AgendaDelete(ctx, channel, order); err != nil {
			return Reply{}, err
		}
		return reply("Agenda item %d has been deleted", order), nil

	case "agenda next":
		item, err := e.AgendaNext(ctx, channel)
		switch {
		case errors.Is(err, engine.ErrEmptyCollection):
			return reply("Current meeting has no agenda."), nil
		case errors.Is(err, engine.ErrNoMoreItems):
			return reply("No more items on the agenda for the current meeting"), nil
		case err != nil:
			return Reply{}, err
		}
		return reply("Current agenda item no. %d: %s", item.Order, item.Text), nil

	case "motion add":
		if text == "" {
			return Reply{}, usage("motion add <text>")
		}
		order, err := e.MotionAdd(ctx, channel, text)
		if err != nil {
			return Reply{}, err
		}
		return reply("Motion %d added to the current meeting", order), nil

	case "motion amend":
		if text == "" {
			return Reply{}, usage("motion amend <text>")
		}
		order, err := e.MotionAmend(ctx, channel, text)
		if err != nil {
			return Reply{}, err
		}
		return reply("Motion %d has been amended as requested.", order), nil

	case "motion decide":
		dec, err := parseDecision(args)
		if err != nil {
			return Reply{}, err
		}
		m, err := e.MotionDecide(ctx, channel, dec)
		if err != nil {
			return Reply{}, err
		}
		return reply("Motion %d: %s - %s", m.Order, m.Text, m.Outcome()), nil

	case "motion list":
		motions, err := e.MotionList(ctx, channel)
		if err != nil {
			return Reply{}, err
		}
		if len(motions) == 0 {
			return reply("The current meeting does not have any motions"), nil
		}
		r := Reply{}
		for _, m := range motions {
			r.Lines = append(r.Lines, fmt.Sprintf("Motion %d: %s - %s", m.Order, m.Text, m.Outcome()))
		}
		return r, nil

	case "motion delete":
		order, err := parseOrder(args, "motion delete <motion number>")
		if err != nil {
			return Reply{}, err
		}
		if err := e.MotionDelete(ctx, channel, order); err != nil {
			return Reply{}, err
		}
		return reply("Motion %d has been deleted", order), nil
	}

	return Reply{}, fmt.Errorf("%w %q", errUnknownCommand, name)
}

func renderStatus(st engine.StatusReport) Reply {
	if !st.HasMeeting {
		return reply("Channel %s does not have a current meeting", st.Channel)
	}
	r := reply("Current meeting for channel %s is %s (id %d)", st.Channel, st.Meeting.Name, st.Meeting.ID)
	switch st.Meeting.Phase {
	case engine.PhaseAdjourned:
		r.Lines = append(r.Lines, "The meeting has adjourned")
	case engine.PhaseInProgress:
		r.Lines = append(r.Lines, "The meeting is currently in progress")
	default:
		r.Lines = append(r.Lines, "The meeting has not started yet")
	}
	return r
}

func parseOrder(args []string, help string) (int, error) {
	if len(args) != 1 {
		return 0, usage(help)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", engine.ErrInvalidArgument, args[0])
	}
	return n, nil
}

// parseDecision reads "carried|rejected <aye> <nay> [motion number]".
func parseDecision(args []string) (engine.Decision, error) {
	const help = "motion decide <carried|rejected> <aye> <nay> [motion number]"
	if len(args) != 3 && len(args) != 4 {
		return engine.Decision{}, usage(help)
	}

	var d engine.Decision
	switch strings.ToLower(args[0]) {
	case "carried", "carries", "passed", "aye", "yes":
		d.Carries = true
	case "rejected", "dismissed", "failed", "nay", "no":
		d.Carries = false
	default:
		return d, usage(help)
	}

	nums := make([]int, 0, 3)
	for _, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return d, fmt.Errorf("%w: %q is not a number", engine.ErrInvalidArgument, a)
		}
		nums = append(nums, n)
	}
	d.Aye, d.Nay = nums[0], nums[1]
	if len(nums) == 3 {
		if nums[2] <= 0 {
			return d, fmt.Errorf("%w: motion %d must be positive", engine.ErrInvalidArgument, nums[2])
		}
		d.Order = nums[2]
	}
	return d, nil
}

func (d *Dispatcher) renderError(channel, name string, err error) Reply {
	switch {
	case errors.Is(err, errUsage):
		return replyError("Usage: %s", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
	case errors.Is(err, errUnknownCommand):
		return replyError("Unknown command %q, try help", name)
	case errors.Is(err, engine.ErrNoCurrentMeeting):
		if name == "start" || name == "adjourn" {
			return replyError("No active meeting on channel %s", channel)
		}
		return replyError("There is no current meeting in channel %s", channel)
	case errors.Is(err, engine.ErrNoCurrentMotion):
		return replyError("There is no current motion in the current meeting")
	case errors.Is(err, engine.ErrAlreadyDecided):
		if name == "motion amend" {
			return replyError("%s has already been decided, it cannot be amended", capitalize(entityOf(err)))
		}
		return replyError("%s has already been decided", capitalize(entityOf(err)))
	case errors.Is(err, engine.ErrCannotDeleteCarriedMotion):
		return replyError("%s cannot be deleted because it has carried.", capitalize(entityOf(err)))
	case errors.Is(err, engine.ErrNotFound):
		return replyError("Cannot find %s", entityOf(err))
	case errors.Is(err, engine.ErrInvalidArgument):
		return replyError("Invalid argument: %s", detailOf(err, engine.ErrInvalidArgument))
	case engine.IsInternal(err):
		log.Printf("commands: %s in %s failed: %v", name, channel, err)
		return replyError("Internal error while running %s, please report it to an operator", name)
	default:
		log.Printf("commands: %s in %s failed: %v", name, channel, err)
		return replyError("Command %s failed", name)
	}
}

// entityOf pulls "motion 3" out of "...: motion 3".
func entityOf(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func detailOf(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var helpLines = []string{
	"Meeting commands:",
	"  prepare <name> | start | adjourn | switchid <id> | status | meetings",
	"  agenda add <text> | agenda list | agenda delete <n> | agenda next",
	"  motion add <text> | motion amend <text> | motion list | motion delete <n>",
	"  motion decide <carried|rejected> <aye> <nay> [n]",
}
