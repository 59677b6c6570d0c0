// Package lesson holds the course catalog and the access gate deciding
// which lessons a viewer may play.
package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Package sentinels. The root package re-exports ErrNotFound for callers
// working through the service facade.
var (
	ErrNotFound       = errors.New("lesson: not found")
	ErrInvalidCatalog = errors.New("lesson: invalid catalog")
)

// Lesson is one entry in the course catalog. Index is the lesson's
// position in course order, starting at zero.
type Lesson struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration string `json:"duration,omitempty"`
	Thumb    string `json:"thumb,omitempty"`
}

// Free reports whether the lesson is viewable without payment. Only the
// first lesson is free.
func (l Lesson) Free() bool { return l.Index == FreeLessonIndex }

// FreeLessonIndex is the position of the preview lesson.
const FreeLessonIndex = 0

// Catalog is an ordered, immutable set of lessons.
type Catalog struct {
	lessons []Lesson
}

// NewCatalog builds a catalog from lessons, ordered by index. Duplicate
// or negative indexes are rejected.
func NewCatalog(lessons []Lesson) (*Catalog, error) {
	ordered := append([]Lesson(nil), lessons...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	seen := make(map[int]struct{}, len(ordered))
	for _, l := range ordered {
		if l.Index < 0 {
			return nil, fmt.Errorf("%w: negative lesson index %d", ErrInvalidCatalog, l.Index)
		}
		if _, dup := seen[l.Index]; dup {
			return nil, fmt.Errorf("%w: duplicate lesson index %d", ErrInvalidCatalog, l.Index)
		}
		seen[l.Index] = struct{}{}
		if l.URL == "" {
			return nil, fmt.Errorf("%w: lesson %d has no media url", ErrInvalidCatalog, l.Index)
		}
	}

	return &Catalog{lessons: ordered}, nil
}

// LoadCatalog reads a JSON lesson list from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lesson: read catalog: %w", err)
	}

	var lessons []Lesson
	if err := json.Unmarshal(data, &lessons); err != nil {
		return nil, fmt.Errorf("lesson: parse catalog: %w", err)
	}

	return NewCatalog(lessons)
}

// Len returns the number of lessons.
func (c *Catalog) Len() int { return len(c.lessons) }

// Lessons returns the lessons in course order.
func (c *Catalog) Lessons() []Lesson {
	return append([]Lesson(nil), c.lessons...)
}

// Get returns the lesson at index.
func (c *Catalog) Get(index int) (Lesson, error) {
	for _, l := range c.lessons {
		if l.Index == index {
			return l, nil
		}
	}
	return Lesson{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
}
