package holiday

import (
	"fmt"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
)

// Kind represents the type of schedule adjustment a holiday causes
type Kind int

const (
	KindUnclassified Kind = iota
	KindNoDelay
	KindAccelerated
	KindShiftOneDay
	KindSpecificReschedule
)

var kindNames = map[Kind]string{
	KindUnclassified:       "unclassified",
	KindNoDelay:            "none",
	KindAccelerated:        "accelerated",
	KindShiftOneDay:        "shift_one_day",
	KindSpecificReschedule: "specific_reschedule",
}

// String implements fmt.Stringer
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown adjustment kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown adjustment kind %q", string(text))
}

// Reschedule moves one weekday's collection onto another weekday of the same week
type Reschedule struct {
	From weekday.Name `json:"from"`
	To   weekday.Name `json:"to"`
}

// Rule is the classified adjustment of a holiday.
// NoCollectionDay is only meaningful for KindShiftOneDay and may be empty.
// Reschedules is only meaningful for KindSpecificReschedule and keeps source order.
type Rule struct {
	Kind            Kind         `json:"type"`
	NoCollectionDay weekday.Name `json:"no_collection_day,omitempty"`
	Reschedules     []Reschedule `json:"reschedules,omitempty"`
}

// NoDelay returns a rule without schedule changes
func NoDelay() Rule { return Rule{Kind: KindNoDelay} }

// Accelerated returns a same-day, earlier-pickup rule
func Accelerated() Rule { return Rule{Kind: KindAccelerated} }

// Unclassified returns a rule for text no pattern recognized
func Unclassified() Rule { return Rule{Kind: KindUnclassified} }

// ShiftOneDay returns a rule shifting the rest of the week by one day
func ShiftOneDay(noCollectionDay weekday.Name) Rule {
	return Rule{Kind: KindShiftOneDay, NoCollectionDay: noCollectionDay}
}

// SpecificReschedule returns a rule with explicit day moves
func SpecificReschedule(reschedules ...Reschedule) Rule {
	return Rule{Kind: KindSpecificReschedule, Reschedules: reschedules}
}

// FirstFrom returns the first reschedule moving the given day, in source order
func (r Rule) FirstFrom(day weekday.Name) (Reschedule, bool) {
	for _, rs := range r.Reschedules {
		if rs.From == day {
			return rs, true
		}
	}
	return Reschedule{}, false
}

// MovesOnto reports whether some other day's collection is moved onto the given day
func (r Rule) MovesOnto(day weekday.Name) (Reschedule, bool) {
	for _, rs := range r.Reschedules {
		if rs.To == day {
			return rs, true
		}
	}
	return Reschedule{}, false
}

// Record represents one parsed holiday entry
type Record struct {
	Name        string
	Date        time.Time // calendar date, midnight UTC
	DayOfWeek   weekday.Name
	Rule        Rule
	Description string
}

// Diagnostic describes an entry that was skipped or could not be classified
type Diagnostic struct {
	Line   int    `json:"line"`
	Header string `json:"header"`
	Reason string `json:"reason"`
}

// Result is the output of a single parser pass over one document
type Result struct {
	Records     []Record
	Diagnostics []Diagnostic
}
