package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Window
		want Window
	}{
		{"empty", Window{}, Window{Limit: DefaultLimit}},
		{"kept", Window{Limit: 5, Offset: 10}, Window{Limit: 5, Offset: 10}},
		{"clamped", Window{Limit: 5000, Offset: -3}, Window{Limit: MaxLimit}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.in
			w.Defaults()
			assert.Equal(t, tc.want, w)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]int{1, 2}, Window{Limit: 2, Offset: 0}, 5)
	assert.True(t, resp.HasMore)
	assert.Equal(t, int64(5), resp.TotalItems)

	last := NewPageResponse([]int{5}, Window{Limit: 2, Offset: 4}, 5)
	assert.False(t, last.HasMore)

	empty := NewPageResponse[int](nil, Window{Limit: 2}, 0)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
}
