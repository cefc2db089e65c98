package session

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sadopc/roster/internal/api"
)

// DayStatus is how a day renders in any grid.
type DayStatus int

const (
	StatusEditable DayStatus = iota
	StatusHoliday
	StatusPending
	StatusApproved
	StatusLocked
)

func (s DayStatus) String() string {
	switch s {
	case StatusHoliday:
		return "holiday"
	case StatusPending:
		return "pending approval"
	case StatusApproved:
		return "approved"
	case StatusLocked:
		return "locked"
	default:
		return "editable"
	}
}

// DayView is the input to StatusOf. Record is nil for a date the server
// returned nothing for.
type DayView struct {
	Record      *api.DayRecord
	Editing     bool
	Approving   bool
	Unapproving bool
}

// StatusOf maps a day to its status. A local approval mark wins. A stored
// approved day that is not being edited is Approved, or Locked once it is
// queued for un-approval from an earlier reopen.
func StatusOf(v DayView) DayStatus {
	if v.Approving {
		return StatusPending
	}
	if v.Record == nil {
		return StatusEditable
	}
	if v.Record.IsApproved && !v.Editing {
		if v.Unapproving {
			return StatusLocked
		}
		return StatusApproved
	}
	if v.Record.IsHoliday {
		return StatusHoliday
	}
	return StatusEditable
}

func minutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 3)
	if len(parts) < 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}

func isNight(start int) bool {
	return start >= 18*60 || start < 6*60
}

// SortShifts returns a copy of shifts in grid order: display_order when both
// shifts carry one, then "general" shifts first, night shifts last, then
// start time.
func SortShifts(shifts []api.ShiftMaster) []api.ShiftMaster {
	out := append([]api.ShiftMaster(nil), shifts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DisplayOrder != nil && b.DisplayOrder != nil {
			return *a.DisplayOrder < *b.DisplayOrder
		}
		ag := strings.Contains(strings.ToLower(a.ShiftName), "general")
		bg := strings.Contains(strings.ToLower(b.ShiftName), "general")
		if ag != bg {
			return ag
		}
		as, bs := minutes(a.StartTime), minutes(b.StartTime)
		if an, bn := isNight(as), isNight(bs); an != bn {
			return bn
		}
		return as < bs
	})
	return out
}
