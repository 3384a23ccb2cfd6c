package holiday

import (
	"reflect"
	"testing"

	"github.com/username/refuse-schedule/internal/weekday"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        Rule
		wantMatched string
	}{
		{
			name:        "no collection delays",
			body:        "No Collection Delays this week",
			want:        NoDelay(),
			wantMatched: "no_delay",
		},
		{
			name:        "no delay wins over later wording",
			body:        "No Delay. Monday collections will take place on Tuesday",
			want:        NoDelay(),
			wantMatched: "no_delay",
		},
		{
			name:        "delayed one day with named day",
			body:        "Collections will be delayed one day this week.\nCollections will NOT occur on Monday.",
			want:        ShiftOneDay(weekday.Monday),
			wantMatched: "delayed_one_day",
		},
		{
			name:        "delayed one day split across lines",
			body:        "Collections will be DELAYED\none   day this week",
			want:        ShiftOneDay(""),
			wantMatched: "delayed_one_day",
		},
		{
			name:        "no collection phrase split across lines",
			body:        "Collections will be delayed one day.\nCollections will NOT\noccur on Thursday",
			want:        ShiftOneDay(weekday.Thursday),
			wantMatched: "delayed_one_day",
		},
		{
			name:        "single reschedule",
			body:        "Monday collections will take place on Tuesday",
			want:        SpecificReschedule(Reschedule{From: weekday.Monday, To: weekday.Tuesday}),
			wantMatched: "reschedule",
		},
		{
			name: "multiple reschedules keep text order",
			body: "Thursday collections will take place on Friday\nFriday collections will occur on Saturday\nWednesday collections will occur on Thursday",
			want: SpecificReschedule(
				Reschedule{From: weekday.Thursday, To: weekday.Friday},
				Reschedule{From: weekday.Wednesday, To: weekday.Thursday},
			),
			wantMatched: "reschedule",
		},
		{
			name: "duplicate from days are kept",
			body: "Monday collections will occur on Tuesday. Monday collections will occur on Wednesday",
			want: SpecificReschedule(
				Reschedule{From: weekday.Monday, To: weekday.Tuesday},
				Reschedule{From: weekday.Monday, To: weekday.Wednesday},
			),
			wantMatched: "reschedule",
		},
		{
			name:        "take place split by extraction",
			body:        "Friday collections will take pl ace on Thursday",
			want:        SpecificReschedule(Reschedule{From: weekday.Friday, To: weekday.Thursday}),
			wantMatched: "reschedule",
		},
		{
			name:        "reschedule trigger without weekday pair",
			body:        "All collections will take place on the regular day",
			want:        SpecificReschedule(),
			wantMatched: "reschedule",
		},
		{
			name:        "reschedule beats accelerated",
			body:        "Friday collections will occur on Thursday on an accelerated schedule",
			want:        SpecificReschedule(Reschedule{From: weekday.Friday, To: weekday.Thursday}),
			wantMatched: "reschedule",
		},
		{
			name:        "accelerated",
			body:        "Collections will be on an accelerated schedule",
			want:        Accelerated(),
			wantMatched: "accelerated",
		},
		{
			name:        "will not occur without pairs",
			body:        "Collections will NOT occur on Thursday",
			want:        SpecificReschedule(),
			wantMatched: "will_not_occur",
		},
		{
			name:        "unrecognized text",
			body:        "Happy holidays from the Public Works department",
			want:        Unclassified(),
			wantMatched: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := Classify(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
			if matched != tt.wantMatched {
				t.Errorf("Classify() matched %q, want %q", matched, tt.wantMatched)
			}
		})
	}
}

func TestClassifierOrder(t *testing.T) {
	want := []string{"no_delay", "delayed_one_day", "reschedule", "accelerated", "will_not_occur"}

	if len(classifiers) != len(want) {
		t.Fatalf("got %d classifiers, want %d", len(classifiers), len(want))
	}
	for i, c := range classifiers {
		if c.name != want[i] {
			t.Errorf("classifiers[%d] = %s, want %s", i, c.name, want[i])
		}
	}
}

func TestRuleHelpers(t *testing.T) {
	rule := SpecificReschedule(
		Reschedule{From: weekday.Monday, To: weekday.Tuesday},
		Reschedule{From: weekday.Monday, To: weekday.Wednesday},
		Reschedule{From: weekday.Tuesday, To: weekday.Wednesday},
	)

	first, ok := rule.FirstFrom(weekday.Monday)
	if !ok || first.To != weekday.Tuesday {
		t.Errorf("FirstFrom(Monday) = %+v, %v, want To=Tuesday", first, ok)
	}
	if _, ok := rule.FirstFrom(weekday.Friday); ok {
		t.Error("FirstFrom(Friday) should not match")
	}

	onto, ok := rule.MovesOnto(weekday.Wednesday)
	if !ok || onto.From != weekday.Monday {
		t.Errorf("MovesOnto(Wednesday) = %+v, %v, want From=Monday", onto, ok)
	}
	if _, ok := rule.MovesOnto(weekday.Monday); ok {
		t.Error("MovesOnto(Monday) should not match")
	}
}

func TestKindText(t *testing.T) {
	for kind, name := range kindNames {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", kind, err)
		}
		if string(text) != name {
			t.Errorf("MarshalText(%d) = %q, want %q", kind, text, name)
		}

		var got Kind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if got != kind {
			t.Errorf("UnmarshalText(%q) = %d, want %d", text, got, kind)
		}
	}

	var k Kind
	if err := k.UnmarshalText([]byte("cancelled")); err == nil {
		t.Error("UnmarshalText(cancelled) expected error")
	}
}
