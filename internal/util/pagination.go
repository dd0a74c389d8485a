package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func Calculate(page, size int) (from, limit int) {
	page, size = Normalize(page, size)
	return (page - 1) * size, size
}

// Normalize returns the effective page and size. Pages past math.MaxInt/size are clamped
// so the offset of the page end still fits in an int.
func Normalize(page, size int) (int, int) {
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	if last := math.MaxInt / size; page > last {
		page = last
	}
	return page, size
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	HasMore    bool  `json:"has_more"`
	NextPage   *int  `json:"next_page"`
	PrevPage   *int  `json:"prev_page"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	page, size = Normalize(page, size)
	from := (page - 1) * size
	p := Page[T]{
		Items:      items,
		HasMore:    total > int64(from+size),
		TotalCount: total,
		Page:       page,
		PageSize:   size,
	}
	if p.HasMore {
		next := page + 1
		p.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		p.PrevPage = &prev
	}
	return p
}
