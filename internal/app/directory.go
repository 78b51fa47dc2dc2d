package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmployeeSource looks an employee up by id; ErrNotFound on a miss.
type EmployeeSource interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

// Directory answers org-chart lookups with an LRU in front of the source.
// Unknown ids resolve to a deterministic placeholder instead of an error:
// interviewer ids on a request may reference people the chart import has
// not seen yet, and scheduling must not stall on that.
type Directory struct {
	source EmployeeSource
	cache  *lru.Cache[string, Employee]
}

func NewDirectory(source EmployeeSource, cacheSize int) (*Directory, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, Employee](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Directory{source: source, cache: cache}, nil
}

// EmployeeInfo never fails. Lookup errors degrade to the placeholder and
// are logged; placeholders are not cached so a late chart import wins.
func (d *Directory) EmployeeInfo(ctx context.Context, id string) Employee {
	id = strings.TrimSpace(id)
	if e, ok := d.cache.Get(id); ok {
		return e
	}

	e, err := d.source.GetEmployee(ctx, id)
	if err != nil {
		if err != ErrNotFound {
			log.Printf("directory: lookup %s failed: %v", id, err)
		}
		return placeholderEmployee(id)
	}

	d.cache.Add(id, *e)
	return *e
}

func placeholderEmployee(id string) Employee {
	norm := NormalizeID(id)
	if norm == "" {
		norm = "UNKNOWN"
	}
	return Employee{
		ID:    id,
		Name:  fmt.Sprintf("Employee %s", norm),
		Email: strings.ToLower(norm) + "@example.com",
	}
}
