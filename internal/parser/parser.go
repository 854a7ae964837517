// Package parser turns user text into validated dosing schedules.
//
// Input uses four semicolon separated fields:
//
//	name; dosage; days; duration
//
// for example "BPC-157; 500mcg; 1,3,5; 8". Days is a weekday range ("1-7"),
// a weekday list ("1,3,5") or a frequency phrase ("eod", "twice weekly").
// Duration is a number of weeks or a phrase like "30 days".
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput wraps every parse rejection.
var ErrInvalidInput = errors.New("could not parse schedule")

const (
	MaxInputLength       = 200
	MaxPeptideNameLength = 100
	MaxDosageLength      = 50
	MinCycleDays         = 1
	MaxCycleDays         = 365
	MinCycleWeeks        = 1
	MaxCycleWeeks        = 52

	fieldCount = 4
)

// ParsedSchedule is the validated result of Parse.
type ParsedSchedule struct {
	PeptideName       string
	Dosage            string
	DayPattern        DayPattern
	CycleDurationDays int
	RestPeriodDays    int
	// Notes is the raw input, bounded by MaxInputLength.
	Notes string
}

var (
	peptideNameRe = regexp.MustCompile(`^[A-Za-z0-9\- ]+$`)
	dosageRe      = regexp.MustCompile(`^\d+(\.\d+)?(mg|mcg|iu|ml|cc)$`)
	digitsRe      = regexp.MustCompile(`^\d+$`)
	weekdaySetRe  = regexp.MustCompile(`^[0-9][0-9,\- ]*$`)
	unsafeChars   = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", `\`, "")
)

// Sanitize removes markup and quoting characters and collapses whitespace.
func Sanitize(text string) string {
	return strings.Join(strings.Fields(unsafeChars.Replace(text)), " ")
}

// Parse validates raw and returns a ParsedSchedule. Every failure wraps
// ErrInvalidInput; nothing is returned for partially valid input.
func Parse(raw string) (ParsedSchedule, error) {
	if strings.TrimSpace(raw) == "" {
		return ParsedSchedule{}, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if utf8.RuneCountInString(raw) > MaxInputLength {
		return ParsedSchedule{}, fmt.Errorf("%w: input longer than %d characters", ErrInvalidInput, MaxInputLength)
	}

	fields := strings.Split(Sanitize(raw), ";")
	if len(fields) != fieldCount {
		return ParsedSchedule{}, fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidInput, fieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	name := fields[0]
	if err := ValidatePeptideName(name); err != nil {
		return ParsedSchedule{}, err
	}

	dosage, err := NormalizeDosage(fields[1])
	if err != nil {
		return ParsedSchedule{}, err
	}

	pattern, err := parseDayField(fields[2])
	if err != nil {
		return ParsedSchedule{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	cycleDays, err := parseDurationField(fields[3])
	if err != nil {
		return ParsedSchedule{}, err
	}

	return ParsedSchedule{
		PeptideName:       name,
		Dosage:            dosage,
		DayPattern:        pattern,
		CycleDurationDays: cycleDays,
		RestPeriodDays:    RestPeriodDays(name, cycleDays),
		Notes:             raw,
	}, nil
}

// ValidatePeptideName checks charset (letters, digits, hyphen, space) and length.
func ValidatePeptideName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty peptide name", ErrInvalidInput)
	}
	if len(name) > MaxPeptideNameLength {
		return fmt.Errorf("%w: peptide name longer than %d", ErrInvalidInput, MaxPeptideNameLength)
	}
	if !peptideNameRe.MatchString(name) {
		return fmt.Errorf("%w: peptide name %q has disallowed characters", ErrInvalidInput, name)
	}
	return nil
}

// NormalizeDosage lower-cases, drops spaces and maps µg/μg/ug to mcg before
// checking the unit whitelist.
func NormalizeDosage(text string) (string, error) {
	d := strings.ToLower(strings.Join(strings.Fields(text), ""))
	for _, micro := range []string{"μg", "µg", "ug"} {
		if strings.HasSuffix(d, micro) {
			d = strings.TrimSuffix(d, micro) + "mcg"
			break
		}
	}
	if d == "" || len(d) > MaxDosageLength || !dosageRe.MatchString(d) {
		return "", fmt.Errorf("%w: dosage %q", ErrInvalidInput, text)
	}
	return d, nil
}

func parseDayField(field string) (DayPattern, error) {
	if weekdaySetRe.MatchString(field) {
		days, err := NormalizeDayPattern(field)
		if err != nil {
			return DayPattern{}, err
		}
		return WeekdayPattern(days)
	}
	interval, ok := LookupFrequency(field)
	if !ok {
		return DayPattern{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidPattern, field)
	}
	return IntervalPattern(interval)
}

func parseDurationField(field string) (int, error) {
	if digitsRe.MatchString(field) {
		weeks, err := strconv.Atoi(field)
		if err != nil || weeks < MinCycleWeeks || weeks > MaxCycleWeeks {
			return 0, fmt.Errorf("%w: %s weeks outside %d..%d", ErrInvalidInput, field, MinCycleWeeks, MaxCycleWeeks)
		}
		return weeks * 7, nil
	}
	days, ok := durationDays(field)
	if !ok {
		return 0, fmt.Errorf("%w: duration %q has no unit", ErrInvalidInput, field)
	}
	if days < MinCycleDays || days > MaxCycleDays {
		return 0, fmt.Errorf("%w: %d days outside %d..%d", ErrInvalidInput, days, MinCycleDays, MaxCycleDays)
	}
	return days, nil
}
