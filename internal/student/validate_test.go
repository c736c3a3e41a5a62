package student_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdir/internal/student"
)

func TestValidate_AllFieldsValid(t *testing.T) {
	t.Parallel()

	bounds := student.DefaultBounds()

	err := bounds.Validate("Alice", 20, "Physics")
	assert.NoError(t, err)
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	t.Parallel()

	bounds := student.DefaultBounds()

	tests := []struct {
		name       string
		inName     string
		age        int
		course     string
		violations int
	}{
		{"one violation: empty name", "", 20, "Physics", 1},
		{"one violation: whitespace name", "   ", 20, "Physics", 1},
		{"one violation: age below minimum", "Alice", 0, "Physics", 1},
		{"one violation: age above maximum", "Alice", 121, "Physics", 1},
		{"one violation: empty course", "Alice", 20, "", 1},
		{"two violations: name and age", "", 0, "Physics", 2},
		{"two violations: age and course", "Alice", 200, "  ", 2},
		{"three violations", "", -5, "", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := bounds.Validate(tt.inName, tt.age, tt.course)
			require.Error(t, err)

			var sErr *student.Error

			require.ErrorAs(t, err, &sErr)
			assert.Equal(t, student.KindValidation, sErr.Kind)
			assert.Len(t, sErr.Violations, tt.violations)
		})
	}
}

func TestValidate_LengthBounds(t *testing.T) {
	t.Parallel()

	bounds := student.DefaultBounds()

	longName := strings.Repeat("a", bounds.MaxNameLength+1)
	longCourse := strings.Repeat("b", bounds.MaxCourseLength+1)

	err := bounds.Validate(longName, 20, longCourse)
	require.Error(t, err)

	var sErr *student.Error

	require.ErrorAs(t, err, &sErr)
	assert.Len(t, sErr.Violations, 2)

	// Exactly at the bound is fine.
	atBound := bounds.Validate(strings.Repeat("a", bounds.MaxNameLength), 20, strings.Repeat("b", bounds.MaxCourseLength))
	assert.NoError(t, atBound)
}

func TestValidate_EmptyNameMessageMentionsName(t *testing.T) {
	t.Parallel()

	bounds := student.DefaultBounds()

	err := bounds.Validate("", 20, "Math")
	require.Error(t, err)

	var sErr *student.Error

	require.ErrorAs(t, err, &sErr)
	assert.Contains(t, sErr.Msg, "name is required")
}

func TestValidatePatch_SkipsNilFields(t *testing.T) {
	t.Parallel()

	bounds := student.DefaultBounds()

	// Nothing supplied, nothing validated.
	assert.NoError(t, bounds.ValidatePatch(nil, nil, nil))

	// Only supplied fields are checked.
	badAge := 0
	err := bounds.ValidatePatch(nil, &badAge, nil)
	require.Error(t, err)

	var sErr *student.Error

	require.ErrorAs(t, err, &sErr)
	assert.Len(t, sErr.Violations, 1)

	goodName := "Bob"
	assert.NoError(t, bounds.ValidatePatch(&goodName, nil, nil))

	emptyName := ""
	assert.Error(t, bounds.ValidatePatch(&emptyName, nil, nil))
}

func TestClassify_WrapsUnknownAsInternal(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	classified := student.Classify(cause)

	require.NotNil(t, classified)
	assert.Equal(t, student.KindInternal, classified.Kind)
	assert.Equal(t, "an unexpected error occurred", classified.Msg)
	assert.ErrorIs(t, classified, cause)
}

func TestClassify_PreservesClassifiedErrors(t *testing.T) {
	t.Parallel()

	notFound := student.NewNotFound("42")
	assert.Same(t, notFound, student.Classify(notFound))

	wrapped := student.NewStorage("write record set", errors.New("disk full"))
	assert.Equal(t, student.KindStorage, student.KindOf(wrapped))

	// Sanitized message never carries the cause.
	assert.NotContains(t, wrapped.Msg, "disk full")
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, student.Classify(nil))
}
