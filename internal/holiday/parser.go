package holiday

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/username/refuse-schedule/internal/weekday"
	"github.com/username/refuse-schedule/pkg/dateutil"
	"go.uber.org/zap"
)

// ErrParseFailure is returned when the document text cannot be processed at all
var ErrParseFailure = errors.New("holiday document could not be parsed")

// Header format: "<Weekday>, <Month> <Day>[, <Year>] <Holiday name>"
var headerRe = regexp.MustCompile(
	`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),\s+` +
		`(\w+)\s+(\d{1,2})(?:,\s+(\d{4}))?\s+(.+)`)

// Parser turns extracted document text into holiday records
type Parser struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewParser creates a new parser. Years missing from headers are taken from now;
// a nil now uses the wall clock.
func NewParser(now func() time.Time, logger *zap.Logger) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{
		logger: logger,
		now:    now,
	}
}

type block struct {
	line   int
	header string
	record Record
	body   []string
}

// Parse segments text into holiday blocks and classifies each block body
func (p *Parser) Parse(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrParseFailure)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: document is not valid UTF-8", ErrParseFailure)
	}

	result := &Result{}
	var current *block

	flush := func() {
		if current == nil {
			return
		}
		if len(current.body) == 0 {
			p.logger.Debug("Dropping holiday entry without body",
				zap.String("header", current.header))
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:   current.line,
				Header: current.header,
				Reason: "entry has no description",
			})
			return
		}
		result.Records = append(result.Records, p.finish(current, result))
	}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				current.body = append(current.body, line)
			}
			continue
		}

		flush()
		current = nil

		date, err := p.resolveDate(m[2], m[3], m[4])
		if err != nil {
			p.logger.Warn("Could not parse holiday date",
				zap.Int("line", i+1),
				zap.String("header", line),
				zap.Error(err))
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Line:   i + 1,
				Header: line,
				Reason: fmt.Sprintf("invalid date: %v", err),
			})
			continue
		}

		current = &block{
			line:   i + 1,
			header: line,
			record: Record{
				Name:      strings.TrimSpace(m[5]),
				Date:      date,
				DayOfWeek: weekday.Name(m[1]),
			},
		}
	}
	flush()

	p.logger.Info("Parsed holiday document",
		zap.Int("holidays", len(result.Records)),
		zap.Int("diagnostics", len(result.Diagnostics)))

	return result, nil
}

func (p *Parser) finish(b *block, result *Result) Record {
	record := b.record
	record.Description = strings.Join(b.body, "\n")

	rule, matched := Classify(record.Description)
	record.Rule = rule

	if rule.Kind == KindUnclassified {
		p.logger.Warn("Holiday entry did not match any known pattern",
			zap.String("holiday", record.Name),
			zap.String("date", dateutil.Key(record.Date)))
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Line:   b.line,
			Header: b.header,
			Reason: "adjustment text not recognized",
		})
	} else {
		p.logger.Debug("Classified holiday entry",
			zap.String("holiday", record.Name),
			zap.String("date", dateutil.Key(record.Date)),
			zap.String("classifier", matched),
			zap.Stringer("kind", rule.Kind))
	}

	return record
}

// resolveDate combines a month name, day of month and optional year into a calendar date
func (p *Parser) resolveDate(month, day, year string) (time.Time, error) {
	y := p.now().Year()
	if year != "" {
		parsed, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, err
		}
		y = parsed
	}

	t, err := time.Parse("January 2 2006", fmt.Sprintf("%s %s %d", month, day, y))
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.CalendarDate(t), nil
}
