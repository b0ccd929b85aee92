package matcher

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/labelscan/allergen-scanner/internal/domain"
)

// DefaultCutoff is the minimum normalized Levenshtein similarity for the
// fuzzy fallback when no variant of a token occurs verbatim.
const DefaultCutoff = 0.86

var wordRe = regexp.MustCompile(`[a-z]+`)

type Matcher struct {
	cutoff float64
}

func New() *Matcher { return &Matcher{cutoff: DefaultCutoff} }

func NewWithCutoff(cutoff float64) *Matcher { return &Matcher{cutoff: cutoff} }

// Match scans text for each allergen token. A token hits when any of its
// variants occurs as a substring of the case-folded text, or, failing
// that, when some word of the text is close enough by edit distance.
// Substring matching is intentional: OCR output often loses word
// boundaries, and missing a real allergen is worse than a false positive.
func (m *Matcher) Match(text string, allergens []string) domain.MatchResult {
	tokens := cleanTokens(allergens)
	folded := foldASCII(text)

	var matched []string
	var spans []span
	var words []string // lazily extracted, only if the fuzzy path is needed

	for _, tok := range tokens {
		hit := false
		for _, v := range variants(tok) {
			occ := findAll(folded, v)
			if len(occ) > 0 {
				hit = true
				spans = append(spans, occ...)
			}
		}
		if !hit && m.cutoff > 0 {
			if words == nil {
				words = wordRe.FindAllString(folded, -1)
			}
			if w := closestWord(tok, words, m.cutoff); w != "" {
				hit = true
				spans = append(spans, findAll(folded, w)...)
			}
		}
		if hit {
			matched = append(matched, tok)
		}
	}

	segments := segment(text, mergeSpans(spans))
	return domain.MatchResult{
		Matched:     matched,
		Segments:    segments,
		Highlighted: renderHTML(segments),
	}
}

type span struct{ start, end int }

// cleanTokens trims, lower-cases, drops empties and de-duplicates while
// preserving the user's order.
func cleanTokens(allergens []string) []string {
	seen := make(map[string]struct{}, len(allergens))
	out := make([]string, 0, len(allergens))
	for _, a := range allergens {
		t := strings.ToLower(strings.TrimSpace(a))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// variants expands a token into the spellings worth searching for:
// singular forms and hyphen/space collapses.
func variants(token string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	add(token)
	if strings.HasSuffix(token, "es") {
		add(token[:len(token)-2])
	}
	if strings.HasSuffix(token, "s") {
		add(token[:len(token)-1])
	}
	add(strings.ReplaceAll(token, "-", " "))
	add(strings.ReplaceAll(token, " ", ""))
	return out
}

// foldASCII lower-cases A-Z only. Match offsets index into the original
// text, so folding must preserve byte positions; full Unicode folding
// does not.
func foldASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}

func findAll(folded, needle string) []span {
	if needle == "" {
		return nil
	}
	var out []span
	for i := 0; ; {
		j := strings.Index(folded[i:], needle)
		if j < 0 {
			return out
		}
		start := i + j
		out = append(out, span{start, start + len(needle)})
		i = start + len(needle)
	}
}

// closestWord returns the text word most similar to the token, or ""
// when nothing reaches the cutoff.
func closestWord(token string, words []string, cutoff float64) string {
	best := ""
	bestScore := cutoff
	for _, w := range words {
		if score := similarity(token, w); score >= bestScore {
			if score > bestScore || best == "" {
				best, bestScore = w, score
			}
		}
	}
	return best
}

func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// mergeSpans sorts and merges overlapping or touching spans so that each
// highlighted region is marked exactly once.
func mergeSpans(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func segment(text string, marked []span) []domain.Segment {
	if text == "" {
		return nil
	}
	var out []domain.Segment
	pos := 0
	for _, s := range marked {
		if s.start > pos {
			out = append(out, domain.Segment{Text: text[pos:s.start]})
		}
		out = append(out, domain.Segment{Text: text[s.start:s.end], Allergen: true})
		pos = s.end
	}
	if pos < len(text) {
		out = append(out, domain.Segment{Text: text[pos:]})
	}
	return out
}

func renderHTML(segments []domain.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Allergen {
			b.WriteString("<mark>")
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</mark>")
		} else {
			b.WriteString(html.EscapeString(s.Text))
		}
	}
	return b.String()
}
