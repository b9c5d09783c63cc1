package digest

import (
	"strings"
	"time"

	"github.com/dalbo/briefingbot/internal/calendar"
	"github.com/dalbo/briefingbot/internal/chat"
	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/task"
)

// briefing is the classified content of one digest run.
type briefing struct {
	Kind Kind
	Now  time.Time

	Events   []calendar.Event
	Overdue  []task.Task
	DueToday []task.Task
	Inbox    []task.Task
}

func (b briefing) header(zone *clock.Zone) string {
	var icon string
	switch b.Kind {
	case KindMorning:
		icon = "🌅"
	case KindAfternoon:
		icon = "☀️"
	case KindEvening:
		icon = "🌙"
	default:
		icon = "📣"
	}
	day := zone.In(b.Now).Format("Mon, Jan 2")
	return icon + " *" + chat.Escape(capitalize(string(b.Kind))+" briefing, "+day) + "*"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// format renders the deterministic sectioned layout used when no model
// grouping is available.
func (b briefing) format(zone *clock.Zone) string {
	var sb strings.Builder
	sb.WriteString(b.header(zone))
	sb.WriteString("\n")

	writeSection := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		sb.WriteString("\n*")
		sb.WriteString(chat.Escape(title))
		sb.WriteString("*\n")
		for _, l := range lines {
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}

	writeSection("📅 Today's events", eventLines(b.Events, zone))
	writeSection("⏰ Overdue", taskLines(b.Overdue, zone))
	writeSection("📋 Due today", taskLines(b.DueToday, zone))
	writeSection("📥 Inbox", taskLines(b.Inbox, zone))

	if len(b.Events) == 0 && len(b.Overdue) == 0 && len(b.DueToday) == 0 && len(b.Inbox) == 0 {
		sb.WriteString("\nNothing on the radar today\\. Enjoy the quiet\\!")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// itemLines flattens every item to one plain (unescaped) line each, the
// input shape the grouping prompt expects.
func (b briefing) itemLines(zone *clock.Zone) []string {
	var lines []string
	for _, ev := range b.Events {
		lines = append(lines, "[event] "+ev.DisplayLine(zone))
	}
	for _, t := range b.Overdue {
		lines = append(lines, "[overdue] "+t.Content)
	}
	for _, t := range b.DueToday {
		lines = append(lines, "[due today] "+t.Content)
	}
	for _, t := range b.Inbox {
		lines = append(lines, "[inbox] "+t.Content)
	}
	return lines
}

func eventLines(events []calendar.Event, zone *clock.Zone) []string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, "• "+chat.Escape(ev.DisplayLine(zone)))
	}
	return lines
}

func taskLines(tasks []task.Task, zone *clock.Zone) []string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		line := "• "
		if m := t.PriorityMarker(); m != "" {
			line += m + " "
		}
		line += chat.Escape(t.Content)
		if t.Due != nil && t.DueHasTime {
			line += " \\(" + zone.In(*t.Due).Format("15:04") + "\\)"
		}
		lines = append(lines, line)
	}
	return lines
}
