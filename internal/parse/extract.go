// Package parse turns free-form assistant replies into structured order
// lines. It only understands the `<quantity><counter><item>` pattern; menu
// validation is the cart's concern.
package parse

import (
	"regexp"
	"strings"
	"unicode"
)

// Line is one extracted (item, quantity) pair. Quantity may be 0 when the
// quantity token could not be normalized; callers choose the policy.
type Line struct {
	ItemName string
	Quantity int
}

// Extractor scans text for quantity+counter+item patterns using a fixed
// vocabulary. It is safe for concurrent use.
type Extractor struct {
	vocab Vocabulary
	re    *regexp.Regexp
	stop  map[rune]bool
}

// NewExtractor compiles the matching pattern for the given vocabulary.
func NewExtractor(v Vocabulary) *Extractor {
	var numbers, counters strings.Builder
	for word := range v.NumberWords {
		numbers.WriteRune(word)
	}
	for _, c := range v.CounterWords {
		counters.WriteRune(c)
	}

	// Quantity is a digit run or a single number word, optionally separated
	// from the counter word by whitespace. The item name that follows is
	// scanned manually, see itemNameAfter.
	pattern := `(\d+|[` + regexp.QuoteMeta(numbers.String()) + `])\s*[` +
		regexp.QuoteMeta(counters.String()) + `]\s*`

	stop := make(map[rune]bool, len(v.Delimiters))
	for _, d := range v.Delimiters {
		stop[d] = true
	}

	return &Extractor{
		vocab: v,
		re:    regexp.MustCompile(pattern),
		stop:  stop,
	}
}

// Extract returns all order lines found in text, in left-to-right order of
// first appearance. Malformed or empty-named matches are skipped; it never
// fails on arbitrary input.
func (e *Extractor) Extract(text string) []Line {
	matches := e.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	lines := make([]Line, 0, len(matches))
	for i, m := range matches {
		// The item name runs from the end of this match to the start of the
		// next one at most.
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		name := strings.TrimSpace(e.itemNameAfter(text[m[1]:end]))
		if name == "" {
			continue
		}

		lines = append(lines, Line{
			ItemName: name,
			Quantity: e.vocab.Normalize(text[m[2]:m[3]]),
		})
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}

// itemNameAfter takes the longest prefix of s made of word characters and
// spaces, stopping at the first delimiter word. Embedded spaces are kept so
// multi-word item names survive; the caller trims the edges.
func (e *Extractor) itemNameAfter(s string) string {
	for i, r := range s {
		if e.stop[r] || !isItemRune(r) {
			return s[:i]
		}
	}
	return s
}

func isItemRune(r rune) bool {
	return r == '_' || r == ' ' || r == '　' ||
		unicode.IsLetter(r) || unicode.IsDigit(r)
}
