package format

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcategories(t *testing.T) {
	text := "[#2 in Cozy Mystery](https://example.com/a) [#15 in Cat Mysteries](https://example.com/b) [Kindle Store](https://example.com/c)"

	got := Subcategories(text)
	require.Len(t, got, 3)
	assert.Equal(t, Subcategory{Rank: 2, Category: "Cozy Mystery", URL: "https://example.com/a"}, got[0])
	assert.Equal(t, 15, got[1].Rank)
	assert.Equal(t, "Cat Mysteries", got[1].Category)
	assert.Equal(t, Subcategory{Category: "Kindle Store", URL: "https://example.com/c"}, got[2])

	assert.Nil(t, Subcategories(""))
	assert.Nil(t, Subcategories("N/A"))
	assert.Nil(t, Subcategories("no links here"))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"cats", "bakery", "small town"}, Topics(" cats | bakery|| small town "))
	assert.Nil(t, Topics("  "))
	assert.Nil(t, Topics("N/A"))
}

func TestReportDate(t *testing.T) {
	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"20250811_cozy_mystery_raw_data.xlsx", "8/11/25", true},
		{"data/raw/20241201_thriller_raw_data.xlsx", "12/1/24", true},
		{"thriller.xlsx", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := ReportDate(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReleaseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-15", "1/15/25", true},
		{"01/15/2025", "1/15/25", true},
		{"01-15-2025", "1/15/25", true},
		{"January 15, 2025", "1/15/25", true},
		{"Jan 5, 2025", "1/5/25", true},
		{"15/01/2025", "1/15/25", true},
		{"20250115", "1/15/25", true},
		{" 2009-07-04 ", "7/4/09", true},
		{"N/A", "", false},
		{"sometime", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ReleaseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a long blurb text", 10, "a long ..."},
		{"Café crème brûlée", 8, "Café ..."},
		{"日本語のタイトルです", 6, "日本語..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
