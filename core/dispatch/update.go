package dispatch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gridpulse/microgrid-dispatch/api"
)

// Local validation errors raised by the update builder before any remote
// call is made.
var (
	ErrUnknownField           = errors.New("unknown field")
	ErrUnknownRecurrenceField = errors.New("unknown recurrence field")
	ErrImmutableField         = errors.New("immutable field")
	ErrNoFieldsToUpdate       = errors.New("no fields to update")
	ErrInvalidFieldValue      = errors.New("invalid field value")
)

// FieldUpdate names one dotted field path and its new value. Updates are
// ordered so the emitted mask is reproducible.
type FieldUpdate struct {
	Path  string
	Value any
}

// FieldUpdates converts an unordered field map into a deterministic update
// list by sorting the paths.
func FieldUpdates(fields map[string]any) []FieldUpdate {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	updates := make([]FieldUpdate, len(paths))
	for i, p := range paths {
		updates[i] = FieldUpdate{Path: p, Value: fields[p]}
	}
	return updates
}

// fieldSpec is one entry of the closed field-path table: the canonical mask
// path plus a typed setter writing the value into the wire delta.
type fieldSpec struct {
	maskPath  string
	immutable bool
	set       func(delta *api.DispatchDelta, val any) error
}

var fieldTable = map[string]fieldSpec{
	"start_time": {maskPath: "start_time", set: setStartTime},
	"duration":   {maskPath: "duration", set: setDuration},
	"selector":   {maskPath: "selector", set: setSelector},
	"is_active":  {maskPath: "is_active", set: setActive},
	// "active" is the domain-level alias for the wire field is_active.
	"active":  {maskPath: "is_active", set: setActive},
	"payload": {maskPath: "payload", set: setPayload},

	// Write-once fields: rejected regardless of value.
	"type":       {maskPath: "type", immutable: true},
	"dry_run":    {maskPath: "is_dry_run", immutable: true},
	"is_dry_run": {maskPath: "is_dry_run", immutable: true},
}

var recurrenceTable = map[string]fieldSpec{
	"freq": {maskPath: "recurrence.freq", set: setFreq},
	// The wire schema calls the field "freq"; accept the long form too and
	// canonicalize the mask path.
	"frequency":    {maskPath: "recurrence.freq", set: setFreq},
	"interval":     {maskPath: "recurrence.interval", set: setInterval},
	"end_criteria": {maskPath: "recurrence.end_criteria", set: setEndCriteria},
	"byminutes":    {maskPath: "recurrence.byminutes", set: setByList("byminutes")},
	"byhours":      {maskPath: "recurrence.byhours", set: setByList("byhours")},
	"byweekdays":   {maskPath: "recurrence.byweekdays", set: setByList("byweekdays")},
	"bymonthdays":  {maskPath: "recurrence.bymonthdays", set: setByList("bymonthdays")},
	"bymonths":     {maskPath: "recurrence.bymonths", set: setByList("bymonths")},
}

// BuildUpdate resolves every field path, producing the sparse wire delta and
// the canonical mask path list, one path per update in input order. Any
// rejected path aborts the whole build.
func BuildUpdate(updates []FieldUpdate) (*api.DispatchDelta, []string, error) {
	delta := &api.DispatchDelta{}
	paths := make([]string, 0, len(updates))

	for _, u := range updates {
		spec, err := resolvePath(u.Path)
		if err != nil {
			return nil, nil, err
		}
		if spec.immutable {
			return nil, nil, fmt.Errorf("%q: %w", u.Path, ErrImmutableField)
		}
		if err := spec.set(delta, u.Value); err != nil {
			return nil, nil, fmt.Errorf("%q: %w", u.Path, err)
		}
		paths = append(paths, spec.maskPath)
	}

	if len(paths) == 0 {
		return nil, nil, ErrNoFieldsToUpdate
	}
	return delta, paths, nil
}

func resolvePath(path string) (fieldSpec, error) {
	head, rest, nested := strings.Cut(path, ".")
	if head == "recurrence" {
		spec, ok := recurrenceTable[rest]
		if !ok {
			return fieldSpec{}, fmt.Errorf("%q: %w", rest, ErrUnknownRecurrenceField)
		}
		return spec, nil
	}
	if nested {
		return fieldSpec{}, fmt.Errorf("%q: %w", path, ErrUnknownField)
	}
	spec, ok := fieldTable[head]
	if !ok {
		return fieldSpec{}, fmt.Errorf("%q: %w", head, ErrUnknownField)
	}
	return spec, nil
}

func setStartTime(delta *api.DispatchDelta, val any) error {
	t, ok := val.(time.Time)
	if !ok {
		return fmt.Errorf("%w: want time.Time, got %T", ErrInvalidFieldValue, val)
	}
	delta.StartTime = api.NewTimestamp(t)
	return nil
}

func setDuration(delta *api.DispatchDelta, val any) error {
	if val == nil {
		// Clears the duration: the dispatch becomes open ended.
		delta.Duration = nil
		return nil
	}
	d, ok := val.(time.Duration)
	if !ok {
		return fmt.Errorf("%w: want time.Duration, got %T", ErrInvalidFieldValue, val)
	}
	if d < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidFieldValue)
	}
	delta.Duration = durationToWire(&d)
	return nil
}

func setSelector(delta *api.DispatchDelta, val any) error {
	sel, ok := val.(ComponentSelector)
	if !ok {
		return fmt.Errorf("%w: want ComponentSelector, got %T", ErrInvalidFieldValue, val)
	}
	w := SelectorToWire(sel)
	delta.Selector = &w
	return nil
}

func setActive(delta *api.DispatchDelta, val any) error {
	b, ok := val.(bool)
	if !ok {
		return fmt.Errorf("%w: want bool, got %T", ErrInvalidFieldValue, val)
	}
	delta.IsActive = &b
	return nil
}

func setPayload(delta *api.DispatchDelta, val any) error {
	m, ok := val.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: want map[string]any, got %T", ErrInvalidFieldValue, val)
	}
	if err := ValidatePayload(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFieldValue, err)
	}
	if delta.Payload == nil {
		delta.Payload = make(map[string]any, len(m))
	}
	for k, v := range m {
		delta.Payload[k] = v
	}
	return nil
}

func setFreq(delta *api.DispatchDelta, val any) error {
	f, ok := val.(Frequency)
	if !ok {
		return fmt.Errorf("%w: want Frequency, got %T", ErrInvalidFieldValue, val)
	}
	v := int32(f)
	recurrenceDelta(delta).Freq = &v
	return nil
}

func setInterval(delta *api.DispatchDelta, val any) error {
	var iv uint32
	switch n := val.(type) {
	case int:
		if n <= 0 {
			return fmt.Errorf("%w: interval must be positive", ErrInvalidFieldValue)
		}
		if uint64(n) > math.MaxUint32 {
			return fmt.Errorf("%w: interval out of range", ErrInvalidFieldValue)
		}
		iv = uint32(n)
	case uint32:
		if n == 0 {
			return fmt.Errorf("%w: interval must be positive", ErrInvalidFieldValue)
		}
		iv = n
	default:
		return fmt.Errorf("%w: want int, got %T", ErrInvalidFieldValue, val)
	}
	recurrenceDelta(delta).Interval = &iv
	return nil
}

func setEndCriteria(delta *api.DispatchDelta, val any) error {
	if val == nil {
		// Clears the end criteria: the recurrence becomes unbounded.
		recurrenceDelta(delta).EndCriteria = nil
		return nil
	}
	ec, ok := val.(*EndCriteria)
	if !ok {
		return fmt.Errorf("%w: want *EndCriteria, got %T", ErrInvalidFieldValue, val)
	}
	if err := ec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFieldValue, err)
	}
	recurrenceDelta(delta).EndCriteria = endCriteriaToWire(ec)
	return nil
}

// setByList returns the setter for one of the list-valued recurrence
// constraints. The lists are replaced wholesale on apply, never merged.
func setByList(field string) func(delta *api.DispatchDelta, val any) error {
	return func(delta *api.DispatchDelta, val any) error {
		list, err := toInt32Slice(val)
		if err != nil {
			return err
		}
		rec := recurrenceDelta(delta)
		switch field {
		case "byminutes":
			rec.ByMinutes = list
		case "byhours":
			rec.ByHours = list
		case "byweekdays":
			rec.ByWeekdays = list
		case "bymonthdays":
			rec.ByMonthDays = list
		case "bymonths":
			rec.ByMonths = list
		}
		return nil
	}
}

func recurrenceDelta(delta *api.DispatchDelta) *api.RecurrenceDelta {
	if delta.Recurrence == nil {
		delta.Recurrence = &api.RecurrenceDelta{}
	}
	return delta.Recurrence
}

func toInt32Slice(val any) ([]int32, error) {
	switch v := val.(type) {
	case []int32:
		return append([]int32(nil), v...), nil
	case []int:
		out := make([]int32, len(v))
		for i, n := range v {
			out[i] = int32(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: want []int, got %T", ErrInvalidFieldValue, val)
	}
}
