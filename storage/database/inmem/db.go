package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/inquiry"
	"github.com/paramedico/console/core/marksheet"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
)

type (
	DB struct {
		user      *table[user.User]
		center    *table[center.Center]
		course    *table[course.Course]
		student   *table[student.Student]
		marksheet *table[marksheet.Marksheet]
		inquiry   *table[inquiry.Inquiry]
		serials   *serialTable
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]T
	}

	serialTable struct {
		sync.Mutex
		seq map[int]int // {year: last}
	}

	// comparators of a row type by ordering field; they return a negative number when a < b
	comparators[T any] map[string]func(a, b T) int
)

var _ core.DB = (*DB)(nil)

func Open() *DB {
	return &DB{
		user:      newTable[user.User](),
		center:    newTable[center.Center](),
		course:    newTable[course.Course](),
		student:   newTable[student.Student](),
		marksheet: newTable[marksheet.Marksheet](),
		inquiry:   newTable[inquiry.Inquiry](),
		serials:   &serialTable{seq: make(map[int]int)},
	}
}

// Reset drops all rows. Repositories opened on db stay usable.
func (db *DB) Reset() {
	db.user.truncate()
	db.center.truncate()
	db.course.truncate()
	db.student.truncate()
	db.marksheet.truncate()
	db.inquiry.truncate()

	db.serials.Lock()
	db.serials.seq = make(map[int]int)
	db.serials.Unlock()
}

func (db *DB) PingContext(context.Context) error { return nil }
func (db *DB) Close() error                      { return nil }

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

// filter returns the rows matching match. The caller holds the lock.
func (t *table[T]) filter(match func(T) bool) []T {
	rows := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if match == nil || match(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	for _, row := range t.rows {
		if match(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) truncate() {
	t.Lock()
	t.rows = make(map[string]T)
	t.Unlock()
}

func (t *table[T]) delete(ids ...string) {
	t.Lock()
	defer t.Unlock()
	for _, id := range ids {
		delete(t.rows, id)
	}
}

// orderBy sorts rows by the known orderings, then by createdAt descending.
func orderBy[T any](rows []T, ordering []core.DBOrdering, cmps comparators[T], createdAt func(T) time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(rows[i], rows[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return createdAt(rows[i]).After(createdAt(rows[j]))
	})
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	return a - b
}
