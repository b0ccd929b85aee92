package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	testCases := []struct {
		name        string
		text        string
		allergens   []string
		wantMatched []string
		wantMarked  string
	}{
		{
			name:        "simple substring hit",
			text:        "contains milk and soy lecithin",
			allergens:   []string{"milk"},
			wantMatched: []string{"milk"},
			wantMarked:  "contains <mark>milk</mark> and soy lecithin",
		},
		{
			name:        "case insensitive both ways",
			text:        "Peanut detected",
			allergens:   []string{"PEANUT"},
			wantMatched: []string{"peanut"},
			wantMarked:  "<mark>Peanut</mark> detected",
		},
		{
			name:        "absent token not matched",
			text:        "contains milk and soy lecithin",
			allergens:   []string{"Milk", "Peanuts"},
			wantMatched: []string{"milk"},
			wantMarked:  "contains <mark>milk</mark> and soy lecithin",
		},
		{
			name:        "plural token matches singular text",
			text:        "tomato paste, salt",
			allergens:   []string{"tomatoes"},
			wantMatched: []string{"tomatoes"},
			wantMarked:  "<mark>tomato</mark> paste, salt",
		},
		{
			name:        "missing word boundary in ocr text",
			text:        "emulsifier: soylecithin",
			allergens:   []string{"soy lecithin"},
			wantMatched: []string{"soy lecithin"},
			wantMarked:  "emulsifier: <mark>soylecithin</mark>",
		},
		{
			name:        "hyphenated token",
			text:        "contains tree nuts",
			allergens:   []string{"tree-nuts"},
			wantMatched: []string{"tree-nuts"},
			wantMarked:  "contains <mark>tree nuts</mark>",
		},
		{
			name:        "fuzzy fallback on ocr misread",
			text:        "hazelnvt spread",
			allergens:   []string{"hazelnut"},
			wantMatched: []string{"hazelnut"},
			wantMarked:  "<mark>hazelnvt</mark> spread",
		},
		{
			name:        "touching spans merge into one mark",
			text:        "milkshake mix",
			allergens:   []string{"milk", "shake"},
			wantMatched: []string{"milk", "shake"},
			wantMarked:  "<mark>milkshake</mark> mix",
		},
		{
			name:        "overlapping spans merge into one mark",
			text:        "lactose free? no: milk solids",
			allergens:   []string{"milk solids", "milk"},
			wantMatched: []string{"milk solids", "milk"},
			wantMarked:  "lactose free? no: <mark>milk solids</mark>",
		},
		{
			name:        "html is escaped in markup",
			text:        "milk & <honey>",
			allergens:   []string{"milk"},
			wantMatched: []string{"milk"},
			wantMarked:  "<mark>milk</mark> &amp; &lt;honey&gt;",
		},
		{
			name:        "duplicates and empties collapse",
			text:        "whole milk powder",
			allergens:   []string{"milk", " Milk ", "", "  "},
			wantMatched: []string{"milk"},
			wantMarked:  "whole <mark>milk</mark> powder",
		},
		{
			name:        "empty allergen list leaves text unmarked",
			text:        "contains milk",
			allergens:   nil,
			wantMatched: nil,
			wantMarked:  "contains milk",
		},
		{
			name:        "empty text yields no matches",
			text:        "",
			allergens:   []string{"milk"},
			wantMatched: nil,
			wantMarked:  "",
		},
	}

	m := New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Match(tc.text, tc.allergens)
			assert.Equal(t, tc.wantMatched, got.Matched)
			assert.Equal(t, tc.wantMarked, got.Highlighted)
		})
	}
}

func TestMatchIsIdempotent(t *testing.T) {
	m := New()
	text := "Contains milk and soy lecithin"
	allergens := []string{"Milk", "Peanuts", "soy"}

	first := m.Match(text, allergens)
	second := m.Match(text, allergens)
	require.Equal(t, first, second)
}

func TestMatchSegmentsPartitionText(t *testing.T) {
	m := New()
	text := "contains milk and soy lecithin"
	got := m.Match(text, []string{"milk", "soy"})

	var rebuilt string
	for _, s := range got.Segments {
		rebuilt += s.Text
	}
	require.Equal(t, text, rebuilt)

	var marked []string
	for _, s := range got.Segments {
		if s.Allergen {
			marked = append(marked, s.Text)
		}
	}
	assert.Equal(t, []string{"milk", "soy"}, marked)
}

func TestMatchEmptyListKeepsSegmentsUnmarked(t *testing.T) {
	m := New()
	got := m.Match("plain text", nil)
	require.Len(t, got.Segments, 1)
	assert.False(t, got.Segments[0].Allergen)
	assert.Equal(t, "plain text", got.Segments[0].Text)
}

func TestFuzzyBelowCutoffDoesNotMatch(t *testing.T) {
	// "peanvt" is one edit from "peanut" but 6 letters: 1-1/6 < 0.86.
	m := New()
	got := m.Match("peanvt butter", []string{"peanut"})
	assert.Empty(t, got.Matched)
}

func TestVariants(t *testing.T) {
	testCases := []struct {
		token string
		want  []string
	}{
		{"milk", []string{"milk"}},
		{"peanuts", []string{"peanuts", "peanut"}},
		{"tomatoes", []string{"tomatoes", "tomato", "tomatoe"}},
		{"tree-nuts", []string{"tree-nuts", "tree-nut", "tree nuts"}},
		{"soy lecithin", []string{"soy lecithin", "soylecithin"}},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			assert.Equal(t, tc.want, variants(tc.token))
		})
	}
}
