package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		page, size string
		want       Request
	}{
		{"", "", Request{Number: 0, Size: DefaultSize}},
		{"2", "6", Request{Number: 2, Size: 6}},
		{"-1", "1000", Request{Number: 0, Size: MaxSize}},
		{"x", "y", Request{Number: 0, Size: DefaultSize}},
		{"9223372036854775807", "100", Request{Number: MaxOffset / 100, Size: 100}},
		{"99999999999999999999999", "", Request{Number: MaxOffset / DefaultSize, Size: DefaultSize}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Parse(c.page, c.size), "page=%q size=%q", c.page, c.size)
	}
}

func TestRequest_OffsetNeverOverflows(t *testing.T) {
	r := Parse("9223372036854775807", "100")
	assert.Positive(t, r.Offset())
	assert.LessOrEqual(t, r.Offset(), MaxOffset)

	r = Request{Number: math.MaxInt, Size: 1}.Normalize()
	assert.Equal(t, MaxOffset, r.Offset())
}

func TestPage_TotalPages(t *testing.T) {
	p := New([]int{1, 2, 3}, 7, Request{Number: 1, Size: 3})
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasNext())
	assert.Equal(t, 3, Request{Number: 1, Size: 3}.Offset())

	empty := New[int](nil, 0, Request{Size: 5})
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages())
	assert.False(t, empty.HasNext())
}
