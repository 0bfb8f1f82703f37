package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinorUnits_RoundsToNearest(t *testing.T) {
	assert.Equal(t, int64(4999), MinorUnits(49.99))
	assert.Equal(t, int64(5000), MinorUnits(50.00))
	assert.Equal(t, int64(1000), MinorUnits(9.999))
	assert.Equal(t, int64(0), MinorUnits(0))
	// float repr of 19.99 is slightly below; truncation would give 1998
	assert.Equal(t, int64(1999), MinorUnits(19.99))
}

func TestPrimaryImage(t *testing.T) {
	cases := []struct {
		name   string
		images string
		want   string
	}{
		{"placeholder skipped", "http://x/1.jpg|nan|http://x/2.jpg", "http://x/1.jpg"},
		{"leading junk", "nan|null| |https://x/2.jpg", "https://x/2.jpg"},
		{"no scheme discarded", "x/1.jpg|ftp://x/2.jpg", ""},
		{"empty", "", ""},
		{"only placeholders", "nan|NULL|undefined", ""},
		{"whitespace trimmed", "  https://cdn.example.com/a.png  ", "https://cdn.example.com/a.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PrimaryImage(tc.images))
		})
	}
}
