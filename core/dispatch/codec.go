package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/gridpulse/microgrid-dispatch/api"
)

// ErrDecode marks malformed wire data. Decode failures are fatal for the
// in-flight operation.
var ErrDecode = errors.New("malformed wire data")

// ToWire encodes a dispatch for transmission.
func ToWire(d Dispatch) *api.Dispatch {
	return &api.Dispatch{
		ID:          d.ID,
		MicrogridID: d.MicrogridID,
		Type:        d.Type,
		StartTime:   api.NewTimestamp(d.StartTime),
		Duration:    durationToWire(d.Duration),
		Selector:    SelectorToWire(d.Selector),
		IsActive:    d.Active,
		IsDryRun:    d.DryRun,
		Payload:     d.Payload,
		Recurrence:  recurrenceToWire(d.Recurrence),
		CreateTime:  api.NewTimestamp(d.CreateTime),
		UpdateTime:  api.NewTimestamp(d.UpdateTime),
	}
}

// FromWire decodes a received dispatch record.
func FromWire(w *api.Dispatch) (Dispatch, error) {
	if w == nil {
		return Dispatch{}, fmt.Errorf("%w: missing dispatch", ErrDecode)
	}
	sel, err := SelectorFromWire(w.Selector)
	if err != nil {
		return Dispatch{}, err
	}
	rec, err := recurrenceFromWire(w.Recurrence)
	if err != nil {
		return Dispatch{}, err
	}
	return Dispatch{
		ID:          w.ID,
		MicrogridID: w.MicrogridID,
		Type:        w.Type,
		StartTime:   w.StartTime.Time(),
		Duration:    durationFromWire(w.Duration),
		Selector:    sel,
		Active:      w.IsActive,
		DryRun:      w.IsDryRun,
		Payload:     w.Payload,
		Recurrence:  rec,
		CreateTime:  w.CreateTime.Time(),
		UpdateTime:  w.UpdateTime.Time(),
	}, nil
}

// SelectorToWire encodes a component selector.
func SelectorToWire(s ComponentSelector) api.ComponentSelector {
	if s.IsCategory() {
		return api.ComponentSelector{ComponentCategory: int32(s.Category())}
	}
	return api.ComponentSelector{ComponentIDs: s.IDs()}
}

// SelectorFromWire decodes a component selector, rejecting the empty variant.
func SelectorFromWire(w api.ComponentSelector) (ComponentSelector, error) {
	if len(w.ComponentIDs) > 0 {
		return SelectComponents(w.ComponentIDs...)
	}
	if w.ComponentCategory == int32(CategoryUnspecified) {
		return ComponentSelector{}, fmt.Errorf("%w: empty component selector", ErrDecode)
	}
	return SelectCategory(ComponentCategory(w.ComponentCategory)), nil
}

func durationToWire(d *time.Duration) *uint32 {
	if d == nil {
		return nil
	}
	secs := uint32(*d / time.Second)
	return &secs
}

func durationFromWire(secs *uint32) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}

// RecurrenceToWire encodes a recurrence rule.
func RecurrenceToWire(r RecurrenceRule) api.RecurrenceRule {
	return recurrenceToWire(r)
}

func recurrenceToWire(r RecurrenceRule) api.RecurrenceRule {
	return api.RecurrenceRule{
		Freq:        int32(r.Frequency),
		Interval:    r.Interval,
		EndCriteria: endCriteriaToWire(r.EndCriteria),
		ByMinutes:   r.ByMinutes,
		ByHours:     r.ByHours,
		ByWeekdays:  r.ByWeekdays,
		ByMonthDays: r.ByMonthDays,
		ByMonths:    r.ByMonths,
	}
}

func recurrenceFromWire(w api.RecurrenceRule) (RecurrenceRule, error) {
	ec, err := endCriteriaFromWire(w.EndCriteria)
	if err != nil {
		return RecurrenceRule{}, err
	}
	return RecurrenceRule{
		Frequency:   Frequency(w.Freq),
		Interval:    w.Interval,
		EndCriteria: ec,
		ByMinutes:   w.ByMinutes,
		ByHours:     w.ByHours,
		ByWeekdays:  w.ByWeekdays,
		ByMonthDays: w.ByMonthDays,
		ByMonths:    w.ByMonths,
	}, nil
}

func endCriteriaToWire(e *EndCriteria) *api.EndCriteria {
	if e == nil {
		return nil
	}
	w := &api.EndCriteria{Count: e.Count}
	if e.Until != nil {
		w.Until = api.NewTimestamp(*e.Until)
	}
	return w
}

func endCriteriaFromWire(w *api.EndCriteria) (*EndCriteria, error) {
	if w == nil {
		return nil, nil
	}
	e := &EndCriteria{Count: w.Count}
	if w.Until != nil {
		u := w.Until.Time()
		e.Until = &u
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return e, nil
}

// ValidatePayload enforces the open payload schema: string keys mapping to
// scalar values only.
func ValidatePayload(payload map[string]any) error {
	for k, v := range payload {
		switch v.(type) {
		case nil, bool, string, int, int32, int64, uint32, uint64, float32, float64:
		default:
			return fmt.Errorf("payload key %q: unsupported value type %T", k, v)
		}
	}
	return nil
}
