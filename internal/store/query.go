package store

import (
	"slices"
	"strings"

	"studentdir/internal/student"
)

// Query defines the read-only filters applied by Filter. Empty strings mean
// "no filter". Offset and Limit are applied to the filtered set, in its
// stored order; out-of-range values shrink the result instead of erroring.
type Query struct {
	// Search keeps records whose name or course contains the value as a
	// case-insensitive substring.
	Search string

	// Course keeps records with an exact, case-sensitive course match.
	// Composes with Search as logical AND.
	Course string

	// Offset skips records of the filtered set. Negative counts as 0.
	Offset int

	// Limit caps the result length. Zero or negative yields an empty
	// result; callers apply their own defaults before calling.
	Limit int
}

// Filter applies q to records and returns the paginated projection.
// The input is never mutated; the result is a fresh slice.
func Filter(records []student.Student, q Query) []student.Student {
	filtered := make([]student.Student, 0, len(records))

	search := strings.ToLower(q.Search)

	for _, rec := range records {
		if search != "" && !matchesSearch(rec, search) {
			continue
		}

		if q.Course != "" && rec.Course != q.Course {
			continue
		}

		filtered = append(filtered, rec)
	}

	return paginate(filtered, q.Offset, q.Limit)
}

// matchesSearch reports whether the lowercased search term occurs in the
// record's name or course.
func matchesSearch(rec student.Student, search string) bool {
	return strings.Contains(strings.ToLower(rec.Name), search) ||
		strings.Contains(strings.ToLower(rec.Course), search)
}

// paginate returns the [offset, offset+limit) slice of filtered.
func paginate(filtered []student.Student, offset, limit int) []student.Student {
	if offset < 0 {
		offset = 0
	}

	if limit <= 0 || offset >= len(filtered) {
		return []student.Student{}
	}

	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[offset:end]
}

// DistinctCourses returns each unique course value exactly once,
// lexicographically sorted.
func DistinctCourses(records []student.Student) []string {
	seen := make(map[string]struct{}, len(records))
	courses := make([]string, 0, len(records))

	for _, rec := range records {
		if _, ok := seen[rec.Course]; ok {
			continue
		}

		seen[rec.Course] = struct{}{}
		courses = append(courses, rec.Course)
	}

	slices.Sort(courses)

	return courses
}

// Count returns the total number of records.
func Count(records []student.Student) int {
	return len(records)
}
