// Package student defines the student record, its field constraints, and the
// error taxonomy shared by the store and directory layers.
package student

import "time"

// Student is the sole persisted entity. The full record set is the unit of
// persistence: every mutation rewrites the whole backing file.
type Student struct {
	// ID is unique across the record set and immutable after creation.
	// It is a stringified positive integer assigned by the allocator.
	ID string `json:"id"`

	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`

	// CreatedAt is set once at creation. UpdatedAt is refreshed on every
	// successful mutation; CreatedAt <= UpdatedAt always holds at rest.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New builds a record with both timestamps set to now.
func New(id, name string, age int, course string, now time.Time) Student {
	return Student{
		ID:        id,
		Name:      name,
		Age:       age,
		Course:    course,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
