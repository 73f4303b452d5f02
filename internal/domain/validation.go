package domain

import (
	"fmt"
	"unicode/utf8"
)

// Validation constants
const (
	MaxLabelLength       = 255
	MaxAdjustmentsPerSet = 100
)

// ValidateAdjustments checks a line set that already passed BuildAdjustments.
func ValidateAdjustments(lines []Adjustment) error {
	if len(lines) > MaxAdjustmentsPerSet {
		return ValidationError(fmt.Sprintf("at most %d manual lines per direction", MaxAdjustmentsPerSet))
	}

	for _, line := range lines {
		if utf8.RuneCountInString(line.Label) > MaxLabelLength {
			return ValidationError(fmt.Sprintf("label exceeds %d characters", MaxLabelLength))
		}
	}

	return nil
}

// ValidateEntryFilter rejects a date range whose end precedes its start.
func ValidateEntryFilter(f EntryFilter) error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return ValidationError("endDate must not be before startDate")
	}
	return nil
}
