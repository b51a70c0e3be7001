// Package validate holds the request field rules shared by the handlers.
package validate

import (
	"fmt"
	"regexp"
	"time"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxTitleLen = 200

// Title validates task/note/event titles: required, at most 200 bytes.
func Title(v string) error {
	if v == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// TaskStatus checks membership in the closed status set.
func TaskStatus(v string) error {
	switch v {
	case "todo", "in_progress", "done":
		return nil
	}
	return fmt.Errorf("status must be one of todo, in_progress, done")
}

// TaskPriority checks membership in the closed priority set.
func TaskPriority(v string) error {
	switch v {
	case "low", "medium", "high":
		return nil
	}
	return fmt.Errorf("priority must be one of low, medium, high")
}

// TimeRange requires both endpoints and end strictly after start.
func TimeRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("startTime and endTime are required")
	}
	if !end.After(start) {
		return fmt.Errorf("endTime must be after startTime")
	}
	return nil
}
