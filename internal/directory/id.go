package directory

import (
	"strconv"

	"studentdir/internal/student"
)

// nextID derives the next identifier from the current record set: the
// maximum numeric id plus one, stringified. Non-numeric ids count as 0 for
// this computation; the policy is deliberately simple and deterministic.
//
// Monotonicity holds only within a serialized call sequence, which the
// store's record-set lock provides.
func nextID(records []student.Student) string {
	maxID := 0

	for _, rec := range records {
		numeric, err := strconv.Atoi(rec.ID)
		if err != nil {
			continue
		}

		if numeric > maxID {
			maxID = numeric
		}
	}

	return strconv.Itoa(maxID + 1)
}
