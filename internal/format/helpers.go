package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	rankPattern     = regexp.MustCompile(`^#?(\d+)\s+in\s+(.+)`)
	reportDateRegex = regexp.MustCompile(`(\d{8})`)
)

// releaseLayouts are tried in order. Day-first only wins when month-first fails.
var releaseLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2/1/2006",
	"20060102",
}

// Subcategory is one bestseller-rank link from a subcategory list.
type Subcategory struct {
	// Rank is zero when the link text carries no "#N in" prefix.
	Rank     int    `json:"rank,omitempty" yaml:"rank,omitempty"`
	Category string `json:"category" yaml:"category"`
	URL      string `json:"url" yaml:"url"`
}

// Subcategories extracts every "[#N in Category](url)" link from text.
func Subcategories(text string) []Subcategory {
	if isBlank(text) {
		return nil
	}

	var out []Subcategory
	for _, m := range linkPattern.FindAllStringSubmatch(text, -1) {
		label, url := m[1], m[2]
		sc := Subcategory{Category: label, URL: url}
		if rm := rankPattern.FindStringSubmatch(strings.TrimSpace(label)); rm != nil {
			if rank, err := strconv.Atoi(rm[1]); err == nil {
				sc.Rank = rank
				sc.Category = rm[2]
			}
		}
		out = append(out, sc)
	}
	return out
}

// Topics splits a pipe-separated topic list.
func Topics(text string) []string {
	if isBlank(text) {
		return nil
	}
	var out []string
	for _, t := range strings.Split(text, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ReportDate renders the first 8-digit run of a source filename (YYYYMMDD) as M/D/YY.
func ReportDate(sourceFile string) (string, bool) {
	m := reportDateRegex.FindString(sourceFile)
	if m == "" {
		return "", false
	}
	year, _ := strconv.Atoi(m[:4])
	month, _ := strconv.Atoi(m[4:6])
	day, _ := strconv.Atoi(m[6:8])
	return shortDate(year, month, day), true
}

// ReleaseDate parses a release date in any of the known layouts and renders it as
// M/D/YY. It reports false when text is blank or matches no layout.
func ReleaseDate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if isBlank(text) {
		return "", false
	}
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return shortDate(t.Year(), int(t.Month()), t.Day()), true
		}
	}
	return "", false
}

func shortDate(year, month, day int) string {
	return fmt.Sprintf("%d/%d/%02d", month, day, year%100)
}

func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == NotAvailable
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
