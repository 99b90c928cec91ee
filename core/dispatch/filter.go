package dispatch

import (
	"time"

	"github.com/gridpulse/microgrid-dispatch/api"
)

// Filter is the canonical query shape for listing dispatches: a scope, an
// optional selector set, half-open start and end intervals and two boolean
// equality predicates. Every specified predicate must hold; absent
// predicates impose no constraint.
type Filter struct {
	MicrogridID uint64

	// Selectors is OR-ed: a record matches when its selector equals any
	// entry. Equality is structural, containment does not count.
	Selectors []ComponentSelector

	// Half-open interval [StartFrom, StartTo) over the start time.
	StartFrom *time.Time
	StartTo   *time.Time

	// Half-open interval [EndFrom, EndTo) over start time plus duration. A
	// dispatch without duration has no end: it fails every bounded EndTo
	// and trivially satisfies EndFrom.
	EndFrom *time.Time
	EndTo   *time.Time

	Active *bool
	DryRun *bool
}

// Matches reports whether the dispatch satisfies the filter. Pure, no I/O.
// The scope check comes before every other predicate.
func (f Filter) Matches(d Dispatch) bool {
	if d.MicrogridID != f.MicrogridID {
		return false
	}

	if len(f.Selectors) > 0 {
		matched := false
		for _, sel := range f.Selectors {
			if d.Selector.Equal(sel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.StartFrom != nil && d.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && !d.StartTime.Before(*f.StartTo) {
		return false
	}

	if f.EndFrom != nil || f.EndTo != nil {
		end, bounded := d.EndTime()
		if f.EndFrom != nil && bounded && end.Before(*f.EndFrom) {
			return false
		}
		if f.EndTo != nil && (!bounded || !end.Before(*f.EndTo)) {
			return false
		}
	}

	if f.Active != nil && d.Active != *f.Active {
		return false
	}
	if f.DryRun != nil && d.DryRun != *f.DryRun {
		return false
	}
	return true
}

// FilterToWire encodes the filter portion of a list request (the scope
// travels on the request itself).
func FilterToWire(f Filter) *api.DispatchFilter {
	w := &api.DispatchFilter{IsActive: f.Active, IsDryRun: f.DryRun}
	for _, sel := range f.Selectors {
		w.Selectors = append(w.Selectors, SelectorToWire(sel))
	}
	w.StartTimeInterval = intervalToWire(f.StartFrom, f.StartTo)
	w.EndTimeInterval = intervalToWire(f.EndFrom, f.EndTo)
	if w.IsActive == nil && w.IsDryRun == nil && len(w.Selectors) == 0 &&
		w.StartTimeInterval == nil && w.EndTimeInterval == nil {
		return nil
	}
	return w
}

// FilterFromWire decodes a wire filter into the canonical shape for the
// given scope. A nil wire filter constrains nothing beyond the scope.
func FilterFromWire(microgridID uint64, w *api.DispatchFilter) (Filter, error) {
	f := Filter{MicrogridID: microgridID}
	if w == nil {
		return f, nil
	}
	for _, ws := range w.Selectors {
		sel, err := SelectorFromWire(ws)
		if err != nil {
			return Filter{}, err
		}
		f.Selectors = append(f.Selectors, sel)
	}
	f.StartFrom, f.StartTo = intervalFromWire(w.StartTimeInterval)
	f.EndFrom, f.EndTo = intervalFromWire(w.EndTimeInterval)
	f.Active = w.IsActive
	f.DryRun = w.IsDryRun
	return f, nil
}

func intervalToWire(from, to *time.Time) *api.TimeInterval {
	if from == nil && to == nil {
		return nil
	}
	iv := &api.TimeInterval{}
	if from != nil {
		iv.From = api.NewTimestamp(*from)
	}
	if to != nil {
		iv.To = api.NewTimestamp(*to)
	}
	return iv
}

func intervalFromWire(iv *api.TimeInterval) (from, to *time.Time) {
	if iv == nil {
		return nil, nil
	}
	if iv.From != nil {
		t := iv.From.Time()
		from = &t
	}
	if iv.To != nil {
		t := iv.To.Time()
		to = &t
	}
	return from, to
}
