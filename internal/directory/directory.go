// Package directory is the mutation pipeline and read API over the record
// store. It is the boundary where failures are classified, logged with full
// detail, and re-surfaced as sanitized errors; internal detail (paths,
// causes) never crosses it.
package directory

import (
	"fmt"
	"slices"
	"time"

	"studentdir/internal/logging"
	"studentdir/internal/store"
	"studentdir/internal/student"
)

// Default pagination bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Config holds the collaborators and tunables of a Service.
type Config struct {
	// Store is the record store. Required.
	Store *store.Store

	// Log receives classified failures and lifecycle events. Required.
	Log logging.Logger

	// Bounds are the validation limits. Zero value means defaults.
	Bounds student.Bounds

	// MaxLimit caps the per-query page size. Zero means MaxLimit.
	MaxLimit int

	// Now supplies timestamps. Zero means time.Now. Tests inject a fixed
	// clock here.
	Now func() time.Time
}

// Service orchestrates validate -> load -> locate -> apply -> persist for
// mutations and serves read-only projections. All state lives in the
// injected store; the Service itself is stateless and safe for concurrent
// use.
type Service struct {
	store    *store.Store
	log      logging.Logger
	bounds   student.Bounds
	maxLimit int
	now      func() time.Time
}

// NewService creates a Service from cfg, applying defaults for unset
// optional fields. Panics if Store or Log is nil.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("cfg.Store is nil")
	}

	if cfg.Log == nil {
		panic("cfg.Log is nil")
	}

	bounds := cfg.Bounds
	if bounds == (student.Bounds{}) {
		bounds = student.DefaultBounds()
	}

	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:    cfg.Store,
		log:      cfg.Log,
		bounds:   bounds,
		maxLimit: maxLimit,
		now:      now,
	}
}

// NewStudent carries the fields of an add request.
type NewStudent struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Course string `json:"course"`
}

// Patch carries the fields of a partial update. Nil fields are left
// unchanged and are not validated.
type Patch struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Course *string `json:"course"`
}

// ListQuery selects and paginates records for List.
type ListQuery struct {
	Search string
	Course string
	Offset int
	Limit  int
}

// List returns the filtered, paginated record set. Limit is clamped to the
// configured maximum; a zero limit yields an empty page.
func (s *Service) List(q ListQuery) ([]student.Student, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, s.fail("list students", err)
	}

	if q.Limit > s.maxLimit {
		q.Limit = s.maxLimit
	}

	return store.Filter(records, store.Query{
		Search: q.Search,
		Course: q.Course,
		Offset: q.Offset,
		Limit:  q.Limit,
	}), nil
}

// Get returns the record with the given id.
func (s *Service) Get(id string) (student.Student, error) {
	records, err := s.store.Load()
	if err != nil {
		return student.Student{}, s.fail("get student", err)
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return student.Student{}, s.fail("get student", student.NewNotFound(id))
	}

	return records[idx], nil
}

// Count returns the total number of records.
func (s *Service) Count() (int, error) {
	records, err := s.store.Load()
	if err != nil {
		return 0, s.fail("count students", err)
	}

	return store.Count(records), nil
}

// Courses returns the distinct course values, sorted.
func (s *Service) Courses() ([]string, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, s.fail("list courses", err)
	}

	return store.DistinctCourses(records), nil
}

// Add validates the input, allocates an id, and appends a new record with
// fresh timestamps. No I/O happens on validation failure.
func (s *Service) Add(in NewStudent) (student.Student, error) {
	validateErr := s.bounds.Validate(in.Name, in.Age, in.Course)
	if validateErr != nil {
		return student.Student{}, s.fail("add student", validateErr)
	}

	var created student.Student

	err := s.store.Update(func(records []student.Student) ([]student.Student, error) {
		created = student.New(nextID(records), in.Name, in.Age, in.Course, s.now().UTC())

		return append(records, created), nil
	})
	if err != nil {
		return student.Student{}, s.fail("add student", err)
	}

	s.log.Info("student added", "id", created.ID, "course", created.Course)

	return created, nil
}

// Update merges the supplied fields into the record with the given id and
// refreshes its UpdatedAt timestamp.
func (s *Service) Update(id string, patch Patch) (student.Student, error) {
	validateErr := s.bounds.ValidatePatch(patch.Name, patch.Age, patch.Course)
	if validateErr != nil {
		return student.Student{}, s.fail("update student", validateErr)
	}

	var updated student.Student

	err := s.store.Update(func(records []student.Student) ([]student.Student, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			return nil, student.NewNotFound(id)
		}

		rec := records[idx]

		if patch.Name != nil {
			rec.Name = *patch.Name
		}

		if patch.Age != nil {
			rec.Age = *patch.Age
		}

		if patch.Course != nil {
			rec.Course = *patch.Course
		}

		rec.UpdatedAt = s.now().UTC()
		records[idx] = rec
		updated = rec

		return records, nil
	})
	if err != nil {
		return student.Student{}, s.fail("update student", err)
	}

	s.log.Info("student updated", "id", updated.ID)

	return updated, nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(id string) error {
	err := s.store.Update(func(records []student.Student) ([]student.Student, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			return nil, student.NewNotFound(id)
		}

		return slices.Delete(records, idx, idx+1), nil
	})
	if err != nil {
		return s.fail("delete student", err)
	}

	s.log.Info("student deleted", "id", id)

	return nil
}

// BulkAdd adds each student independently, one persisted write per item.
// A failure aborts the remaining items without rolling back prior ones; the
// returned slice holds what was committed and the error is a *BulkError
// naming the failing index.
func (s *Service) BulkAdd(ins []NewStudent) ([]student.Student, error) {
	added := make([]student.Student, 0, len(ins))

	for i, in := range ins {
		created, err := s.Add(in)
		if err != nil {
			return added, &BulkError{Index: i, Committed: len(added), Err: err}
		}

		added = append(added, created)
	}

	return added, nil
}

// BulkDelete deletes each id independently, one persisted write per id.
// Same partial-completion contract as BulkAdd.
func (s *Service) BulkDelete(ids []string) error {
	for i, id := range ids {
		err := s.Delete(id)
		if err != nil {
			return &BulkError{Index: i, Committed: i, Err: err}
		}
	}

	return nil
}

// BulkError reports a bulk operation that stopped partway. Items before
// Index are committed; items from Index on were not attempted or failed.
type BulkError struct {
	// Index is the position of the failing item in the request.
	Index int

	// Committed is the number of items persisted before the failure.
	Committed int

	// Err is the failing item's classified error.
	Err error
}

// Error formats the partial-success condition for logs.
func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk item %d failed after %d committed: %v", e.Index, e.Committed, e.Err)
}

// Unwrap returns the failing item's error.
func (e *BulkError) Unwrap() error {
	return e.Err
}

// fail classifies err, logs it with full detail, and returns the sanitized
// form. This is the single choke point where internal causes are dropped
// from what callers see.
func (s *Service) fail(op string, err error) *student.Error {
	classified := student.Classify(err)

	s.log.Error(op+" failed",
		"kind", string(classified.Kind),
		"message", classified.Msg,
		"cause", fmt.Sprint(classified.Err),
	)

	return classified
}

// indexOf returns the index of the record with the given id, or -1.
func indexOf(records []student.Student, id string) int {
	return slices.IndexFunc(records, func(rec student.Student) bool {
		return rec.ID == id
	})
}
