package parser

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPattern is returned when a day pattern token cannot be normalized.
var ErrInvalidPattern = errors.New("invalid day pattern")

// DefaultDurationDays is used by NormalizeDuration when no unit is present (6 weeks).
const DefaultDurationDays = 42

// NormalizeDayPattern turns "a-b" or "d1,d2,..." into an ascending set of
// ISO weekday numbers (Mon=1..Sun=7).
func NormalizeDayPattern(input string) ([]int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}

	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, s)
		}
		from, err := weekdayDigit(parts[0])
		if err != nil {
			return nil, err
		}
		to, err := weekdayDigit(parts[1])
		if err != nil {
			return nil, err
		}
		if from > to {
			return nil, fmt.Errorf("%w: reversed range %q", ErrInvalidPattern, s)
		}
		days := make([]int, 0, to-from+1)
		for d := from; d <= to; d++ {
			days = append(days, d)
		}
		return days, nil
	}

	seen := make(map[int]bool, 7)
	var days []int
	for _, token := range strings.Split(s, ",") {
		d, err := weekdayDigit(token)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days, nil
}

func weekdayDigit(token string) (int, error) {
	t := strings.TrimSpace(token)
	if len(t) != 1 || t[0] < '1' || t[0] > '7' {
		return 0, fmt.Errorf("%w: bad day %q", ErrInvalidPattern, t)
	}
	return int(t[0] - '0'), nil
}

// frequencyPhrases is checked in order; longer phrases come before the ones
// they contain ("twice weekly" before "weekly").
//
// The mapping to an interval is an approximation: "twice weekly" becomes
// every 3 days and "3x weekly" every 2 days.
var frequencyPhrases = []struct {
	phrase string
	days   int
}{
	{"every other day", 2},
	{"three times weekly", 2},
	{"twice weekly", 3},
	{"2x weekly", 3},
	{"3x weekly", 2},
	{"once weekly", 7},
	{"every day", 1},
	{"daily", 1},
	{"eod", 2},
	{"weekly", 7},
}

func normalizePhrase(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// LookupFrequency maps a known frequency phrase to an interval in days. The
// whole phrase must match, so "biweekly" or "not daily" are unknown.
func LookupFrequency(text string) (int, bool) {
	s := normalizePhrase(text)
	for _, f := range frequencyPhrases {
		if s == f.phrase {
			return f.days, true
		}
	}
	return 0, false
}

// NormalizeFrequencyPhrase finds the first known phrase anywhere in text.
// Unknown text is treated as daily.
func NormalizeFrequencyPhrase(text string) int {
	s := normalizePhrase(text)
	for _, f := range frequencyPhrases {
		if strings.Contains(s, f.phrase) {
			return f.days
		}
	}
	return 1
}

var (
	weeksRe  = regexp.MustCompile(`(\d+)\s*week`)
	daysRe   = regexp.MustCompile(`(\d+)\s*day`)
	monthsRe = regexp.MustCompile(`(\d+)\s*month`)
)

// NormalizeDuration sums "N week", "N day" and "N month" (30 days) counts.
// Text without any unit yields DefaultDurationDays; an explicit zero yields 0.
func NormalizeDuration(text string) int {
	days, ok := durationDays(text)
	if !ok {
		return DefaultDurationDays
	}
	return days
}

// durationDays reports false when the text carries no unit token at all.
// Counts above MaxCycleDays yield MaxCycleDays+1 so callers reject them.
func durationDays(text string) (int, bool) {
	s := strings.ToLower(text)
	total := 0
	matched := false
	for _, u := range []struct {
		re   *regexp.Regexp
		mult int
	}{
		{weeksRe, 7},
		{daysRe, 1},
		{monthsRe, 30},
	} {
		m := u.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		matched = true
		n, err := strconv.Atoi(m[1])
		if err != nil || n > MaxCycleDays {
			return MaxCycleDays + 1, true
		}
		total += n * u.mult
	}
	return total, matched
}

var restOverrides = []struct {
	needle string
	days   int
}{
	{"foxo4", 120},
	{"epithalon", 180},
	{"tb-500", 60},
}

// RestPeriodDays returns the cooldown after a cycle: equal to the cycle
// unless the peptide has a known protocol-specific rest.
func RestPeriodDays(peptideName string, cycleDays int) int {
	lower := strings.ToLower(peptideName)
	for _, o := range restOverrides {
		if strings.Contains(lower, o.needle) {
			return o.days
		}
	}
	return cycleDays
}
