package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	require.Len(t, c.Locales, 3)
	assert.Equal(t, "", c.Locales[0].Path)
	assert.Len(t, c.Categories, 6)
	assert.Len(t, c.Materials, 5)
	assert.Len(t, c.Banners, 4)
	assert.Equal(t, []string{"EU", "US", "UK", "Finger (mm)"}, c.SizeChart.Headers)
	require.Len(t, c.SizeChart.Rows, 21)
	assert.Equal(t, RingSize{EU: 52, US: 6, UK: "L ½", Circumference: 52}, c.SizeChart.Rows[9])

	rings, ok := c.Category("rings")
	assert.True(t, ok)
	assert.Equal(t, "Rings", rings.ProductType)

	_, ok = c.Material("platinum")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		err  string
	}{
		{"no locales", "categories: []", "at least one locale"},
		{"default not first", "locales:\n  - {label: DE, path: /de}", "first locale must be the default"},
		{"nested prefix", "locales:\n  - {label: EN, path: ''}\n  - {label: DE, path: /de/at}", "single-segment"},
		{"bad yaml", "locales: [", "failed to decode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.ErrorContains(t, err, tc.err)
		})
	}
}
