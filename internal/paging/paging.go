// Package paging carries page requests and page results between the HTTP
// layer and the stores.
package paging

import (
	"math"
	"strconv"
)

const (
	DefaultSize = 10
	MaxSize     = 100

	// MaxOffset bounds Number*Size so the offset fits any SQL OFFSET.
	MaxOffset = math.MaxInt32
)

// Request is a zero-based page number and a page size.
type Request struct {
	Number int
	Size   int
}

// Normalize clamps a request into a usable range.
func (r Request) Normalize() Request {
	if r.Number < 0 {
		r.Number = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultSize
	}
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	if r.Number > MaxOffset/r.Size {
		r.Number = MaxOffset / r.Size
	}
	return r
}

func (r Request) Offset() int { return r.Number * r.Size }
func (r Request) Limit() int  { return r.Size }

// Parse reads page/size query values, falling back to defaults on junk.
func Parse(page, size string) Request {
	n, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return Request{Number: n, Size: s}.Normalize()
}

// Page is one slice of a result set plus the total number of matches.
type Page[T any] struct {
	Content []T   `json:"content"`
	Total   int64 `json:"total"`
	Number  int   `json:"number"`
	Size    int   `json:"size"`
}

func New[T any](content []T, total int64, req Request) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Content: content, Total: total, Number: req.Number, Size: req.Size}
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

func (p Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }
