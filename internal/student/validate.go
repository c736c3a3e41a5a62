package student

import (
	"fmt"
	"strings"
)

// Default validation bounds.
const (
	DefaultMaxNameLength   = 100
	DefaultMinAge          = 1
	DefaultMaxAge          = 120
	DefaultMaxCourseLength = 200
)

// Bounds holds the configurable validation limits.
type Bounds struct {
	MaxNameLength   int
	MinAge          int
	MaxAge          int
	MaxCourseLength int
}

// DefaultBounds returns the shipped validation limits.
func DefaultBounds() Bounds {
	return Bounds{
		MaxNameLength:   DefaultMaxNameLength,
		MinAge:          DefaultMinAge,
		MaxAge:          DefaultMaxAge,
		MaxCourseLength: DefaultMaxCourseLength,
	}
}

// Validate checks all three fields independently and collects every
// violation. It never short-circuits: a triple violating k constraints
// yields exactly k messages. Returns nil when all fields are valid.
func (b Bounds) Validate(name string, age int, course string) error {
	var violations []string

	violations = append(violations, b.checkName(name)...)
	violations = append(violations, b.checkAge(age)...)
	violations = append(violations, b.checkCourse(course)...)

	if len(violations) == 0 {
		return nil
	}

	return NewValidation(violations)
}

// ValidatePatch validates only the supplied fields of a partial update.
// Nil fields are skipped and left unchanged by the caller.
func (b Bounds) ValidatePatch(name *string, age *int, course *string) error {
	var violations []string

	if name != nil {
		violations = append(violations, b.checkName(*name)...)
	}

	if age != nil {
		violations = append(violations, b.checkAge(*age)...)
	}

	if course != nil {
		violations = append(violations, b.checkCourse(*course)...)
	}

	if len(violations) == 0 {
		return nil
	}

	return NewValidation(violations)
}

func (b Bounds) checkName(name string) []string {
	var violations []string

	if strings.TrimSpace(name) == "" {
		violations = append(violations, "name is required")
	}

	if len(name) > b.MaxNameLength {
		violations = append(violations, fmt.Sprintf("name must be at most %d characters", b.MaxNameLength))
	}

	return violations
}

func (b Bounds) checkAge(age int) []string {
	if age < b.MinAge || age > b.MaxAge {
		return []string{fmt.Sprintf("age must be between %d and %d", b.MinAge, b.MaxAge)}
	}

	return nil
}

func (b Bounds) checkCourse(course string) []string {
	var violations []string

	if strings.TrimSpace(course) == "" {
		violations = append(violations, "course is required")
	}

	if len(course) > b.MaxCourseLength {
		violations = append(violations, fmt.Sprintf("course must be at most %d characters", b.MaxCourseLength))
	}

	return violations
}
