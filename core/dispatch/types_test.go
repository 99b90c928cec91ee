package dispatch

import (
	"testing"
	"time"
)

func TestParseSelector(t *testing.T) {
	cases := []struct {
		in   string
		want ComponentSelector
	}{
		{"BATTERY", SelectCategory(CategoryBattery)},
		{"battery", SelectCategory(CategoryBattery)},
		{" ev_charger ", SelectCategory(CategoryEVCharger)},
		{"7", mustSelector(t, 7)},
		{"1,2,3", mustSelector(t, 1, 2, 3)},
		{"3, 1 ,2", mustSelector(t, 3, 1, 2)},
	}
	for _, tc := range cases {
		got, err := ParseSelector(tc.in)
		if err != nil {
			t.Errorf("parse %q: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parse %q = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"", "BOGUS", "1,x"} {
		if _, err := ParseSelector(in); err == nil {
			t.Errorf("parse %q: expected error", in)
		}
	}
}

func TestSelectorEqual(t *testing.T) {
	a := mustSelector(t, 1, 2, 3)
	b := mustSelector(t, 3, 2, 1)
	if !a.Equal(b) {
		t.Errorf("id selectors compare as sets")
	}
	if a.Equal(mustSelector(t, 1, 2)) {
		t.Errorf("different id sets must not be equal")
	}
	if !SelectCategory(CategoryBattery).Equal(SelectCategory(CategoryBattery)) {
		t.Errorf("same category must be equal")
	}
	if SelectCategory(CategoryBattery).Equal(SelectCategory(CategoryMeter)) {
		t.Errorf("different categories must not be equal")
	}
	if a.Equal(SelectCategory(CategoryBattery)) {
		t.Errorf("id and category selectors never match")
	}
}

func TestSelectComponentsEmpty(t *testing.T) {
	if _, err := SelectComponents(); err == nil {
		t.Fatalf("empty id list must be rejected")
	}
}

func TestSelectorValidate(t *testing.T) {
	if err := (ComponentSelector{}).Validate(); err == nil {
		t.Fatalf("empty selector must fail validation")
	}
	if err := SelectCategory(CategoryGrid).Validate(); err != nil {
		t.Fatalf("category selector: %v", err)
	}
	if err := mustSelector(t, 1).Validate(); err != nil {
		t.Fatalf("id selector: %v", err)
	}
}

func TestEndCriteriaValidate(t *testing.T) {
	if err := EndAfter(5).Validate(); err != nil {
		t.Errorf("count criteria: %v", err)
	}
	if err := EndBefore(time.Now()).Validate(); err != nil {
		t.Errorf("until criteria: %v", err)
	}
	if err := (&EndCriteria{}).Validate(); err == nil {
		t.Errorf("empty criteria must be rejected")
	}
	count := uint32(1)
	now := time.Now()
	if err := (&EndCriteria{Count: &count, Until: &now}).Validate(); err == nil {
		t.Errorf("criteria with both variants must be rejected")
	}
	var nilEC *EndCriteria
	if err := nilEC.Validate(); err != nil {
		t.Errorf("nil criteria are valid: %v", err)
	}
}

func TestValidateStartTime(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	if err := ValidateStartTime(time.Time{}, now); err != ErrStartTimeUnset {
		t.Errorf("zero time: err = %v, want ErrStartTimeUnset", err)
	}
	if err := ValidateStartTime(now, now); err != ErrStartTimeInPast {
		t.Errorf("start == now: err = %v, want ErrStartTimeInPast", err)
	}
	if err := ValidateStartTime(now.Add(-time.Second), now); err != ErrStartTimeInPast {
		t.Errorf("past start: err = %v, want ErrStartTimeInPast", err)
	}
	if err := ValidateStartTime(now.Add(time.Second), now); err != nil {
		t.Errorf("future start: %v", err)
	}
}

func TestValidateDuration(t *testing.T) {
	if err := ValidateDuration(nil); err != nil {
		t.Errorf("nil duration is valid: %v", err)
	}
	zero := time.Duration(0)
	if err := ValidateDuration(&zero); err != nil {
		t.Errorf("zero duration is valid: %v", err)
	}
	pos := time.Hour
	if err := ValidateDuration(&pos); err != nil {
		t.Errorf("positive duration is valid: %v", err)
	}
	neg := -time.Second
	if err := ValidateDuration(&neg); err != ErrNegativeDuration {
		t.Errorf("negative duration: err = %v, want ErrNegativeDuration", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := baseDispatch(t)
	d.Recurrence.EndCriteria = EndAfter(3)
	cp := d.Clone()

	cp.Payload["mode"] = "idle"
	cp.Recurrence.ByHours[0] = 99
	*cp.Recurrence.EndCriteria.Count = 7

	if d.Payload["mode"] != "discharge" {
		t.Errorf("clone shares the payload map")
	}
	if d.Recurrence.ByHours[0] != 8 {
		t.Errorf("clone shares the recurrence lists")
	}
	if *d.Recurrence.EndCriteria.Count != 3 {
		t.Errorf("clone shares the end criteria")
	}
}
