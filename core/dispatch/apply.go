package dispatch

import (
	"github.com/gridpulse/microgrid-dispatch/api"
)

// ApplyDelta applies a received (delta, mask paths) pair onto a dispatch and
// returns the patched copy. The input record is never mutated. The per-field
// semantics mirror BuildUpdate exactly: scalars overwrite, the recurrence
// lists are replaced wholesale and the payload map is merged key by key.
// Paths outside the shared vocabulary are ignored.
func ApplyDelta(d Dispatch, delta *api.DispatchDelta, paths []string) (Dispatch, error) {
	out := d.Clone()
	if delta == nil {
		delta = &api.DispatchDelta{}
	}
	for _, path := range paths {
		switch path {
		case "start_time":
			out.StartTime = delta.StartTime.Time()
		case "duration":
			out.Duration = durationFromWire(delta.Duration)
		case "selector":
			if delta.Selector != nil {
				sel, err := SelectorFromWire(*delta.Selector)
				if err != nil {
					return Dispatch{}, err
				}
				out.Selector = sel
			}
		case "is_active":
			if delta.IsActive != nil {
				out.Active = *delta.IsActive
			}
		case "payload":
			if out.Payload == nil && len(delta.Payload) > 0 {
				out.Payload = make(map[string]any, len(delta.Payload))
			}
			for k, v := range delta.Payload {
				out.Payload[k] = v
			}
		case "recurrence.freq":
			if rec := delta.Recurrence; rec != nil && rec.Freq != nil {
				out.Recurrence.Frequency = Frequency(*rec.Freq)
			}
		case "recurrence.interval":
			if rec := delta.Recurrence; rec != nil && rec.Interval != nil {
				out.Recurrence.Interval = *rec.Interval
			}
		case "recurrence.end_criteria":
			var wire *api.EndCriteria
			if delta.Recurrence != nil {
				wire = delta.Recurrence.EndCriteria
			}
			ec, err := endCriteriaFromWire(wire)
			if err != nil {
				return Dispatch{}, err
			}
			out.Recurrence.EndCriteria = ec
		case "recurrence.byminutes":
			out.Recurrence.ByMinutes = recurrenceList(delta, "byminutes")
		case "recurrence.byhours":
			out.Recurrence.ByHours = recurrenceList(delta, "byhours")
		case "recurrence.byweekdays":
			out.Recurrence.ByWeekdays = recurrenceList(delta, "byweekdays")
		case "recurrence.bymonthdays":
			out.Recurrence.ByMonthDays = recurrenceList(delta, "bymonthdays")
		case "recurrence.bymonths":
			out.Recurrence.ByMonths = recurrenceList(delta, "bymonths")
		}
	}
	return out, nil
}

func recurrenceList(delta *api.DispatchDelta, field string) []int32 {
	rec := delta.Recurrence
	if rec == nil {
		return nil
	}
	var src []int32
	switch field {
	case "byminutes":
		src = rec.ByMinutes
	case "byhours":
		src = rec.ByHours
	case "byweekdays":
		src = rec.ByWeekdays
	case "bymonthdays":
		src = rec.ByMonthDays
	case "bymonths":
		src = rec.ByMonths
	}
	return append([]int32(nil), src...)
}
