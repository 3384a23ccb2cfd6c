package holiday

import (
	"regexp"
	"strings"

	"github.com/username/refuse-schedule/internal/weekday"
)

const workdayPattern = `(Monday|Tuesday|Wednesday|Thursday|Friday)`

// "take place" is sometimes extracted as "take pl ace"
const movePattern = `collections will (?:take pl?\s*ace|occur) on`

var (
	delayedOneDayRe     = regexp.MustCompile(`(?i)delayed\s+one\s+day`)
	noCollectionOnRe    = regexp.MustCompile(`Collections will NOT\s+occur on ` + workdayPattern)
	rescheduleTriggerRe = regexp.MustCompile(`(?i)` + movePattern)
	reschedulePairRe    = regexp.MustCompile(workdayPattern + ` ` + movePattern + ` ` + workdayPattern)
	whitespaceRe        = regexp.MustCompile(`\s+`)
)

// classifier turns a whitespace-normalized block body into a rule.
// Classifiers are evaluated in order and the first match wins.
type classifier struct {
	name  string
	match func(text string) (Rule, bool)
}

var classifiers = []classifier{
	{name: "no_delay", match: matchNoDelay},
	{name: "delayed_one_day", match: matchDelayedOneDay},
	{name: "reschedule", match: matchReschedule},
	{name: "accelerated", match: matchAccelerated},
	{name: "will_not_occur", match: matchWillNotOccur},
}

func matchNoDelay(text string) (Rule, bool) {
	if strings.Contains(text, "No Collection Delays") || strings.Contains(text, "No Delay") {
		return NoDelay(), true
	}
	return Rule{}, false
}

func matchDelayedOneDay(text string) (Rule, bool) {
	if !delayedOneDayRe.MatchString(text) {
		return Rule{}, false
	}
	var day weekday.Name
	if m := noCollectionOnRe.FindStringSubmatch(text); m != nil {
		day = weekday.Name(m[1])
	}
	return ShiftOneDay(day), true
}

func matchReschedule(text string) (Rule, bool) {
	if !rescheduleTriggerRe.MatchString(text) {
		return Rule{}, false
	}
	return SpecificReschedule(extractReschedules(text)...), true
}

func matchAccelerated(text string) (Rule, bool) {
	if strings.Contains(text, "accelerated schedule") {
		return Accelerated(), true
	}
	return Rule{}, false
}

func matchWillNotOccur(text string) (Rule, bool) {
	if strings.Contains(text, "will NOT occur") {
		return SpecificReschedule(extractReschedules(text)...), true
	}
	return Rule{}, false
}

// extractReschedules returns every "<day> collections will take place on <day>" pair in text order
func extractReschedules(text string) []Reschedule {
	matches := reschedulePairRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	reschedules := make([]Reschedule, 0, len(matches))
	for _, m := range matches {
		reschedules = append(reschedules, Reschedule{
			From: weekday.Name(m[1]),
			To:   weekday.Name(m[2]),
		})
	}
	return reschedules
}

// normalizeWhitespace collapses runs of whitespace into single spaces
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Classify maps a block body to its adjustment rule and the name of the classifier that matched.
// Text no classifier recognizes yields an Unclassified rule and an empty name.
func Classify(body string) (Rule, string) {
	text := normalizeWhitespace(body)
	for _, c := range classifiers {
		if rule, ok := c.match(text); ok {
			return rule, c.name
		}
	}
	return Unclassified(), ""
}
