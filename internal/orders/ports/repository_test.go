package ports_test

import (
	"testing"

	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/stretchr/testify/assert"
)

func TestListFilterNormalize(t *testing.T) {
	tests := []struct {
		name       string
		filter     ports.ListFilter
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "defaults", filter: ports.ListFilter{}, wantPage: 1, wantSize: 20, wantOffset: 0},
		{name: "second page", filter: ports.ListFilter{Page: 2, PageSize: 10}, wantPage: 2, wantSize: 10, wantOffset: 10},
		{name: "page size clamped", filter: ports.ListFilter{Page: 1, PageSize: 500}, wantPage: 1, wantSize: 100, wantOffset: 0},
		{name: "negative values", filter: ports.ListFilter{Page: -3, PageSize: -1}, wantPage: 1, wantSize: 20, wantOffset: 0},
		{
			name:       "huge page clamped",
			filter:     ports.ListFilter{Page: 1 << 62, PageSize: 100},
			wantPage:   ports.MaxPage,
			wantSize:   100,
			wantOffset: (ports.MaxPage - 1) * 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Normalize()

			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantSize, got.PageSize)
			assert.Equal(t, tt.wantOffset, got.Offset())
		})
	}
}
