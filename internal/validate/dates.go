package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var errAmbiguousDate = errors.New("ambiguous calendar date")

// unambiguous layouts, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
}

var reNumericDMY = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

// NormalizeDate reduces a date string to an unambiguous YYYY-MM-DD value.
// Day-first vs month-first numeric forms are rejected unless one field
// exceeds 12, which disambiguates them; partial dates are rejected rather
// than guessed.
func NormalizeDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	if m := reNumericDMY.FindStringSubmatch(s); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		var month, day int
		switch {
		case a > 12 && b <= 12:
			day, month = a, b
		case b > 12 && a <= 12:
			month, day = a, b
		case a == b && a <= 12:
			month, day = a, b
		default:
			return "", errAmbiguousDate
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return "", fmt.Errorf("not a valid calendar date")
		}
		return t.Format("2006-01-02"), nil
	}

	return "", fmt.Errorf("not an unambiguous calendar date")
}
