package cli

import (
	"github.com/gosuri/uitable"

	"github.com/julianstephens/habitquest/internal/constants"
	"github.com/julianstephens/habitquest/internal/models"
	"github.com/julianstephens/habitquest/internal/streak"
)

func NewTable(header ...interface{}) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	if len(header) > 0 {
		tbl.AddRow(header...)
	}
	return tbl
}

// ShortID trims UUIDs for display. Backend IDs are already short.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func Glyph(s streak.Status) string {
	switch s {
	case streak.StatusSuccess:
		return "■"
	case streak.StatusPartial:
		return "◧"
	case streak.StatusFailed:
		return "□"
	case streak.StatusPending:
		return "·"
	default:
		return " "
	}
}

// Entry renders what a log holds for the habit.
func Entry(h models.Habit, l *models.HabitLog) string {
	if l == nil {
		return "-"
	}
	mark := "✗"
	if l.Completed {
		mark = "✓"
	}
	if h.TrackingType == constants.TrackingVariableAmount {
		mark = l.Value.String() + "/" + h.Target.String()
		if h.Unit != "" {
			mark += " " + h.Unit
		}
	}
	if l.WasRevived {
		mark += " (revived)"
	}
	return mark
}
