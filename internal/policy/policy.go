// Package policy evaluates named templates over attribute payloads.
// Evaluation is pure and has no snapshot notion: it always reads whatever
// attributes the caller passes in.
package policy

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dErrors "livre/pkg/domain-errors"
)

// TemplateAgeOver18ResidentPT is the built-in template: age >= 18 and
// resident in PT. The template registry is static and closed; unknown ids
// evaluate to false (fail-closed, no default-allow).
const TemplateAgeOver18ResidentPT = "age_over_18_and_resident_pt"

// MaxAgeYears is the sanity bound: a birthdate representing an age of 150
// years or more is rejected.
const MaxAgeYears = 150

var (
	birthdateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	countryShape   = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

// KnownTemplate reports whether the id belongs to the closed template set.
func KnownTemplate(templateID string) bool {
	return templateID == TemplateAgeOver18ResidentPT
}

// ParseBirthdate enforces the strict YYYY-MM-DD shape and that the string
// names a real calendar date (Feb 30 is rejected, not normalized).
func ParseBirthdate(value string) (time.Time, error) {
	if !birthdateShape.MatchString(value) {
		return time.Time{}, fmt.Errorf("invalid birthdate format, expected YYYY-MM-DD")
	}
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("birthdate must be a valid calendar date")
	}
	// time.Parse normalizes overflow dates (2001-02-30 -> 2001-03-02);
	// re-format to catch them.
	if d.Format("2006-01-02") != value {
		return time.Time{}, fmt.Errorf("birthdate must be a valid calendar date")
	}
	return d, nil
}

// Age computes the calendar-aware integer age: the year difference,
// decremented if the birth month/day has not been reached yet this year.
func Age(birthdate, now time.Time) int {
	age := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		age--
	}
	return age
}

// truncateToDay drops the time-of-day so future checks compare at day
// granularity.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateBirthdate is the input-boundary check behind the attributes
// endpoint: shape, real date, not in the future, age under the sanity bound.
func ValidateBirthdate(value string, now time.Time) error {
	d, err := ParseBirthdate(value)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	today := truncateToDay(now)
	if d.After(today) {
		return dErrors.New(dErrors.CodeValidation, "birthdate cannot be in the future")
	}
	if Age(d, today) >= MaxAgeYears {
		return dErrors.New(dErrors.CodeValidation, "birthdate must represent an age under 150")
	}
	return nil
}

// ValidateCountry requires a 2-letter code. Case is accepted here and
// normalized at evaluation time.
func ValidateCountry(value string) error {
	if !countryShape.MatchString(value) {
		return dErrors.New(dErrors.CodeValidation, "country must be a 2-letter ISO code (e.g. PT)")
	}
	return nil
}

// Attributes is the slice of the identity record the evaluator needs.
type Attributes struct {
	Birthdate string
	Country   string
}

// Satisfies reports whether the attributes meet the named template. All
// rejection paths return false rather than an error: a proof request must
// not learn why evaluation failed.
func Satisfies(attrs *Attributes, templateID string, now time.Time) bool {
	if attrs == nil || attrs.Birthdate == "" || attrs.Country == "" {
		return false
	}
	birthdate, err := ParseBirthdate(attrs.Birthdate)
	if err != nil {
		return false
	}
	today := truncateToDay(now)
	if birthdate.After(today) {
		return false
	}
	age := Age(birthdate, today)
	if age >= MaxAgeYears {
		return false
	}
	country := strings.ToUpper(attrs.Country)

	switch templateID {
	case TemplateAgeOver18ResidentPT:
		return age >= 18 && country == "PT"
	default:
		return false
	}
}
