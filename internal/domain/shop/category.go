package shop

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryPathSeparator separates the segments of a category path such as
// "Garden > Tools > Spades".
const CategoryPathSeparator = ">"

// Category is a node in the store category tree.
type Category struct {
	ID        uuid.UUID
	ParentID  *uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

// NewCategory creates an active category below parentID (nil for a root).
func NewCategory(name string, parentID *uuid.UUID) *Category {
	return &Category{
		ID:        uuid.New(),
		ParentID:  parentID,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

// SplitCategoryPath splits a category path on the separator and trims every
// segment. Empty segments are dropped.
func SplitCategoryPath(path string) []string {
	parts := strings.Split(path, CategoryPathSeparator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
