// Package security validates untrusted values before they reach backend URLs
package security

import (
	"fmt"
	"regexp"
	"time"
)

// ValidRecordIDRegex matches backend record ids: numeric ids, uuids and slugs
var ValidRecordIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSegmentRegex matches resource and relation path segments
var ValidSegmentRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateRecordID checks that id can be placed in a URL path as a single segment
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	if len(id) > 64 {
		return fmt.Errorf("record id too long (max 64 characters)")
	}
	if !ValidRecordIDRegex.MatchString(id) {
		return fmt.Errorf("invalid record id %q", id)
	}
	return nil
}

// ValidateSegment checks a resource or relation name such as "monitoringstations"
func ValidateSegment(name string) error {
	if name == "" {
		return fmt.Errorf("path segment cannot be empty")
	}
	if !ValidSegmentRegex.MatchString(name) {
		return fmt.Errorf("invalid path segment %q", name)
	}
	return nil
}

// DateLayout is the ISO date format used by date inputs and range queries
const DateLayout = "2006-01-02"

// ValidateDateRange parses start and end and checks start is not after end
func ValidateDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", start)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", end)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return from, to, nil
}
