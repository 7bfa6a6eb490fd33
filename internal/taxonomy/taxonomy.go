// Package taxonomy loads the genre taxonomy and per-field display rules from the
// data mapping document.
//
// A Mapping is built once by Load or Parse and is read-only afterwards; callers hold
// a *Mapping and pass it to whatever needs it. Loading never fails: a missing or
// malformed document yields an empty Mapping whose lookups fall back to defaults.
package taxonomy

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DisplayKind tells the presentation layer how a field is shown.
type DisplayKind string

const (
	KindDisplay    DisplayKind = "display"
	KindHyperlink  DisplayKind = "hyperlink"
	KindImage      DisplayKind = "image"
	KindSearchable DisplayKind = "searchable"
	KindIgnore     DisplayKind = "ignore"
)

// Format selects how a field's value is rendered to a display string.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatCurrency Format = "currency"
	FormatRating   Format = "rating"
	FormatCount    Format = "count"
	FormatFlag     Format = "flag"
	FormatList     Format = "list"
	FormatDate     Format = "date"
)

// FieldRule describes one known column.
type FieldRule struct {
	Name        string
	DisplayName string
	Display     DisplayKind
	// Note is the free-text formatting note from the document.
	Note   string
	Format Format
	// TrueLabel and FalseLabel are only used by FormatFlag.
	TrueLabel  string
	FalseLabel string
}

// CardDisplay groups the fields shown on a book card.
type CardDisplay struct {
	Primary    []string `yaml:"primary_fields" json:"primary_fields"`
	Secondary  []string `yaml:"secondary_fields" json:"secondary_fields"`
	Expandable []string `yaml:"expandable_fields" json:"expandable_fields"`
}

// DefaultCardDisplay is used for any card section the document leaves out.
var DefaultCardDisplay = CardDisplay{
	Primary:    []string{"Title", "Author", "reviewAverage", "nReviews", "price"},
	Secondary:  []string{"Series", "nPages", "releaseDate", "publisher"},
	Expandable: []string{"blurbText", "topicTags", "subcatsList"},
}

func (c CardDisplay) clone() CardDisplay {
	return CardDisplay{
		Primary:    slices.Clone(c.Primary),
		Secondary:  slices.Clone(c.Secondary),
		Expandable: slices.Clone(c.Expandable),
	}
}

// baseSearchable are always searchable regardless of the document.
var baseSearchable = []string{"Title", "Author", "Series", "blurbText", "topicTags", "subcatsList"}

type defaultFormat struct {
	format     Format
	trueLabel  string
	falseLabel string
}

// defaultFormats applies when a field entry has no explicit kind.
var defaultFormats = map[string]defaultFormat{
	"price":         {format: FormatCurrency},
	"reviewAverage": {format: FormatRating},
	"nReviews":      {format: FormatCount},
	"isTrad":        {format: FormatFlag, trueLabel: "Yes", falseLabel: "No"},
	"isFree":        {format: FormatFlag, trueLabel: "Free", falseLabel: "Paid"},
	"topicTags":     {format: FormatList},
	"subcatsList":   {format: FormatList},
	"releaseDate":   {format: FormatPlain},
}

// Mapping is the immutable genre taxonomy plus field rule set.
type Mapping struct {
	genres map[string]string
	fields map[string]FieldRule
	card   CardDisplay
}

type document struct {
	Genres      map[string]string    `yaml:"genres"`
	Fields      map[string]yaml.Node `yaml:"fields"`
	CardDisplay CardDisplay          `yaml:"card_display"`
}

type fieldDocument struct {
	DisplayName string   `yaml:"display_name"`
	DisplayType string   `yaml:"display_type"`
	Format      string   `yaml:"format"`
	Kind        string   `yaml:"kind"`
	Labels      []string `yaml:"labels"`
}

// Empty returns a Mapping with no genres and no field rules.
func Empty() *Mapping {
	return &Mapping{
		genres: map[string]string{},
		fields: map[string]FieldRule{},
		card:   DefaultCardDisplay.clone(),
	}
}

// New builds a Mapping from in-memory tables. Rules with an empty Format get the
// built-in default for their name. Later rules replace earlier ones with the same name.
func New(genres map[string]string, rules []FieldRule) *Mapping {
	m := Empty()
	for code, name := range genres {
		m.genres[code] = name
	}
	for _, r := range rules {
		if r.DisplayName == "" {
			r.DisplayName = r.Name
		}
		if r.Display == "" {
			r.Display = KindDisplay
		}
		if r.Format == "" {
			r = withDefaultFormat(r)
		}
		m.fields[r.Name] = r
	}
	return m
}

// Load reads the mapping document at path. A missing or unparseable document is
// logged as a warning and yields an empty Mapping.
func Load(path string) *Mapping {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Data mapping file not found, using fallbacks", "path", path, "err", err)
		return Empty()
	}

	m, err := Parse(data)
	if err != nil {
		slog.Warn("Failed to parse data mapping, using fallbacks", "path", path, "err", err)
		return Empty()
	}

	slog.Debug("Loaded data mapping", "path", path, "genres", len(m.genres), "fields", len(m.fields))
	return m
}

// Parse decodes a mapping document.
func Parse(data []byte) (*Mapping, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode mapping document: %w", err)
	}

	m := Empty()
	for code, name := range doc.Genres {
		m.genres[code] = name
	}

	for name, node := range doc.Fields {
		if node.Kind != yaml.MappingNode {
			slog.Debug("Skipping field entry that is not a mapping", "field", name)
			continue
		}
		var fd fieldDocument
		if err := node.Decode(&fd); err != nil {
			slog.Debug("Skipping malformed field entry", "field", name, "err", err)
			continue
		}
		m.fields[name] = ruleFromDocument(name, fd)
	}

	if len(doc.CardDisplay.Primary) > 0 {
		m.card.Primary = doc.CardDisplay.Primary
	}
	if len(doc.CardDisplay.Secondary) > 0 {
		m.card.Secondary = doc.CardDisplay.Secondary
	}
	if len(doc.CardDisplay.Expandable) > 0 {
		m.card.Expandable = doc.CardDisplay.Expandable
	}

	return m, nil
}

func ruleFromDocument(name string, fd fieldDocument) FieldRule {
	r := FieldRule{
		Name:        name,
		DisplayName: fd.DisplayName,
		Display:     parseDisplayKind(fd.DisplayType),
		Note:        fd.Format,
	}
	if r.DisplayName == "" {
		r.DisplayName = name
	}

	switch f := Format(strings.ToLower(strings.TrimSpace(fd.Kind))); f {
	case FormatPlain, FormatCurrency, FormatRating, FormatCount, FormatList, FormatDate:
		r.Format = f
	case FormatFlag:
		r.Format = f
		if len(fd.Labels) == 2 {
			r.TrueLabel, r.FalseLabel = fd.Labels[0], fd.Labels[1]
		}
	case "":
	default:
		slog.Debug("Unknown field kind, using default", "field", name, "kind", fd.Kind)
	}

	if r.Format == "" {
		r = withDefaultFormat(r)
	}
	if r.Format == FormatFlag && r.TrueLabel == "" {
		r = withDefaultLabels(r)
	}
	return r
}

func withDefaultFormat(r FieldRule) FieldRule {
	d, ok := defaultFormats[r.Name]
	if !ok {
		r.Format = FormatPlain
		return r
	}
	r.Format = d.format
	if d.format == FormatFlag && r.TrueLabel == "" {
		r.TrueLabel, r.FalseLabel = d.trueLabel, d.falseLabel
	}
	return r
}

func withDefaultLabels(r FieldRule) FieldRule {
	if d, ok := defaultFormats[r.Name]; ok && d.trueLabel != "" {
		r.TrueLabel, r.FalseLabel = d.trueLabel, d.falseLabel
		return r
	}
	r.TrueLabel, r.FalseLabel = "Yes", "No"
	return r
}

func parseDisplayKind(s string) DisplayKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hyperlink":
		return KindHyperlink
	case "image":
		return KindImage
	case "searchable":
		return KindSearchable
	case "ignore", "hyperlink_source":
		return KindIgnore
	default:
		return KindDisplay
	}
}

// GenreDisplayName returns the display name for a genre code. Unknown codes render
// as the code with underscores replaced by spaces, title-cased.
func (m *Mapping) GenreDisplayName(code string) string {
	if m != nil {
		if name, ok := m.genres[code]; ok {
			return name
		}
	}
	return FallbackDisplayName(code)
}

// FallbackDisplayName renders a genre code without consulting a taxonomy.
// "cozy_mystery" -> "Cozy Mystery".
func FallbackDisplayName(code string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(code, "_", " "))
}

// FieldRule returns the rule for a field.
func (m *Mapping) FieldRule(name string) (FieldRule, bool) {
	if m == nil {
		return FieldRule{}, false
	}
	r, ok := m.fields[name]
	return r, ok
}

// Genres returns the genre codes in the taxonomy, sorted.
func (m *Mapping) Genres() []string {
	if m == nil {
		return nil
	}
	codes := make([]string, 0, len(m.genres))
	for code := range m.genres {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rules returns every field rule sorted by field name.
func (m *Mapping) Rules() []FieldRule {
	if m == nil {
		return nil
	}
	rules := make([]FieldRule, 0, len(m.fields))
	for _, r := range m.fields {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules
}

// DisplayFields returns the rules whose kind is shown to readers.
func (m *Mapping) DisplayFields() []FieldRule {
	var out []FieldRule
	for _, r := range m.Rules() {
		switch r.Display {
		case KindDisplay, KindHyperlink, KindImage:
			out = append(out, r)
		}
	}
	return out
}

// SearchableFields returns the fields a text search covers.
func (m *Mapping) SearchableFields() []string {
	out := append([]string{}, baseSearchable...)
	seen := make(map[string]bool, len(out))
	for _, f := range out {
		seen[f] = true
	}
	for _, r := range m.Rules() {
		if r.Display == KindSearchable && !seen[r.Name] {
			out = append(out, r.Name)
		}
	}
	return out
}

// CardDisplay returns a copy of the book card layout.
func (m *Mapping) CardDisplay() CardDisplay {
	if m == nil {
		return DefaultCardDisplay.clone()
	}
	return m.card.clone()
}
