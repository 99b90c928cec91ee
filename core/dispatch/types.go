package dispatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ComponentCategory identifies a class of microgrid components a dispatch
// can target as a whole.
type ComponentCategory int32

const (
	CategoryUnspecified ComponentCategory = iota
	CategoryGrid
	CategoryMeter
	CategoryInverter
	CategoryBattery
	CategoryEVCharger
	CategoryCHP
)

var categoryNames = map[ComponentCategory]string{
	CategoryGrid:      "GRID",
	CategoryMeter:     "METER",
	CategoryInverter:  "INVERTER",
	CategoryBattery:   "BATTERY",
	CategoryEVCharger: "EV_CHARGER",
	CategoryCHP:       "CHP",
}

func (c ComponentCategory) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "UNSPECIFIED"
}

// ParseCategory resolves a category name as used by the CLI and config files.
func ParseCategory(s string) (ComponentCategory, error) {
	needle := strings.ToUpper(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == needle {
			return c, nil
		}
	}
	return CategoryUnspecified, fmt.Errorf("unknown component category %q", s)
}

// ComponentSelector identifies the targets of a dispatch: either an explicit
// non-empty set of component ids or a whole component category. Exactly one
// of the two is ever set.
type ComponentSelector struct {
	ids      []uint64
	category ComponentCategory
}

// SelectComponents builds a selector from explicit component ids.
func SelectComponents(ids ...uint64) (ComponentSelector, error) {
	if len(ids) == 0 {
		return ComponentSelector{}, fmt.Errorf("component selector requires at least one id")
	}
	cp := make([]uint64, len(ids))
	copy(cp, ids)
	return ComponentSelector{ids: cp}, nil
}

// SelectCategory builds a selector targeting every component of a category.
func SelectCategory(c ComponentCategory) ComponentSelector {
	return ComponentSelector{category: c}
}

// IsCategory reports whether the selector targets a whole category.
func (s ComponentSelector) IsCategory() bool { return len(s.ids) == 0 }

// IDs returns the selected component ids, nil for a category selector.
func (s ComponentSelector) IDs() []uint64 {
	if len(s.ids) == 0 {
		return nil
	}
	cp := make([]uint64, len(s.ids))
	copy(cp, s.ids)
	return cp
}

// Category returns the selected category, CategoryUnspecified for an id selector.
func (s ComponentSelector) Category() ComponentCategory {
	if len(s.ids) > 0 {
		return CategoryUnspecified
	}
	return s.category
}

// Equal reports structural equality: two id selectors with identical id sets,
// or two selectors naming the same category. Mismatched kinds never match.
func (s ComponentSelector) Equal(o ComponentSelector) bool {
	if s.IsCategory() != o.IsCategory() {
		return false
	}
	if s.IsCategory() {
		return s.category == o.category
	}
	if len(s.ids) != len(o.ids) {
		return false
	}
	a := append([]uint64(nil), s.ids...)
	b := append([]uint64(nil), o.ids...)
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s ComponentSelector) String() string {
	if s.IsCategory() {
		return s.category.String()
	}
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseSelector parses the CLI selector notation: a category name such as
// "BATTERY" or a comma separated id list such as "1,2,3".
func ParseSelector(s string) (ComponentSelector, error) {
	if cat, err := ParseCategory(s); err == nil {
		return SelectCategory(cat), nil
	}
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return ComponentSelector{}, fmt.Errorf("invalid selector %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return SelectComponents(ids...)
}

// Frequency is the base unit of a recurrence rule.
type Frequency int32

const (
	FrequencyUnspecified Frequency = iota
	FrequencyHourly
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
)

func (f Frequency) String() string {
	switch f {
	case FrequencyHourly:
		return "HOURLY"
	case FrequencyDaily:
		return "DAILY"
	case FrequencyWeekly:
		return "WEEKLY"
	case FrequencyMonthly:
		return "MONTHLY"
	default:
		return "UNSPECIFIED"
	}
}

// EndCriteria terminates a recurrence: either after a number of repetitions
// or at an instant, never both.
type EndCriteria struct {
	Count *uint32
	Until *time.Time
}

// EndAfter builds a count based end criteria.
func EndAfter(count uint32) *EndCriteria {
	return &EndCriteria{Count: &count}
}

// EndBefore builds an until based end criteria.
func EndBefore(until time.Time) *EndCriteria {
	return &EndCriteria{Until: &until}
}

// Validate rejects criteria carrying both or neither variant.
func (e *EndCriteria) Validate() error {
	if e == nil {
		return nil
	}
	if (e.Count == nil) == (e.Until == nil) {
		return fmt.Errorf("end criteria must carry exactly one of count or until")
	}
	return nil
}

// RecurrenceRule describes how a dispatch repeats. The zero value means no
// recurrence.
type RecurrenceRule struct {
	Frequency Frequency
	// Interval multiplies Frequency, e.g. every 2 days.
	Interval    uint32
	EndCriteria *EndCriteria

	// Occurrence constraints per time axis; an empty slice leaves the axis
	// unconstrained.
	ByMinutes   []int32
	ByHours     []int32
	ByWeekdays  []int32
	ByMonthDays []int32
	ByMonths    []int32
}

// Dispatch is a timed, possibly recurring instruction for a microgrid.
type Dispatch struct {
	// ID is assigned by the service and immutable.
	ID          uint64
	MicrogridID uint64
	// Type is a free-form tag understood by downstream applications. It is
	// write-once: updates touching it are rejected.
	Type      string
	StartTime time.Time
	// Duration of the dispatch; nil means it never ends.
	Duration *time.Duration
	Selector ComponentSelector
	Active   bool
	// DryRun marks a dispatch executed for logging only. Write-once.
	DryRun     bool
	Payload    map[string]any
	Recurrence RecurrenceRule
	CreateTime time.Time
	UpdateTime time.Time
}

// EndTime returns the instant the dispatch ends and true, or false for a
// dispatch without duration.
func (d Dispatch) EndTime() (time.Time, bool) {
	if d.Duration == nil {
		return time.Time{}, false
	}
	return d.StartTime.Add(*d.Duration), true
}

// Clone returns a deep copy, so mask application never aliases the stored
// record's payload map or recurrence slices.
func (d Dispatch) Clone() Dispatch {
	cp := d
	if d.Payload != nil {
		cp.Payload = make(map[string]any, len(d.Payload))
		for k, v := range d.Payload {
			cp.Payload[k] = v
		}
	}
	cp.Recurrence = d.Recurrence.clone()
	return cp
}

func (r RecurrenceRule) clone() RecurrenceRule {
	cp := r
	if r.EndCriteria != nil {
		ec := EndCriteria{}
		if r.EndCriteria.Count != nil {
			c := *r.EndCriteria.Count
			ec.Count = &c
		}
		if r.EndCriteria.Until != nil {
			u := *r.EndCriteria.Until
			ec.Until = &u
		}
		cp.EndCriteria = &ec
	}
	cp.ByMinutes = append([]int32(nil), r.ByMinutes...)
	cp.ByHours = append([]int32(nil), r.ByHours...)
	cp.ByWeekdays = append([]int32(nil), r.ByWeekdays...)
	cp.ByMonthDays = append([]int32(nil), r.ByMonthDays...)
	cp.ByMonths = append([]int32(nil), r.ByMonths...)
	return cp
}
