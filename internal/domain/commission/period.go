package commission

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Period is one reporting month. It is never stored on its own.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	verr := &ValidationError{}
	if p.Month < 1 || p.Month > 12 {
		verr.add("month", "must be between 1 and 12")
	}
	if p.Year < minYear || p.Year > maxYear {
		verr.add("year", fmt.Sprintf("must be between %d and %d", minYear, maxYear))
	}
	return verr.orNil()
}

// Key formats the period as YYYY-MM.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) String() string {
	return p.Key()
}

func ParsePeriodKey(key string) (Period, error) {
	yearPart, monthPart, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok || len(yearPart) != 4 || len(monthPart) != 2 {
		return Period{}, &ValidationError{Issues: []FieldIssue{{Field: "period", Reason: "must use YYYY-MM format"}}}
	}
	year, yerr := strconv.Atoi(yearPart)
	month, merr := strconv.Atoi(monthPart)
	if yerr != nil || merr != nil {
		return Period{}, &ValidationError{Issues: []FieldIssue{{Field: "period", Reason: "must use YYYY-MM format"}}}
	}
	return NewPeriod(month, year)
}

// PeriodSet is the closed-periods marker of one group.
type PeriodSet map[string]struct{}

func NewPeriodSet(keys ...string) PeriodSet {
	set := PeriodSet{}
	for _, key := range keys {
		set.Add(key)
	}
	return set
}

// Add inserts key and reports whether it was absent.
func (s PeriodSet) Add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

func (s PeriodSet) Remove(key string) bool {
	if _, ok := s[key]; !ok {
		return false
	}
	delete(s, key)
	return true
}

func (s PeriodSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

func (s PeriodSet) Keys() []string {
	out := make([]string, 0, len(s))
	for key := range s {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
