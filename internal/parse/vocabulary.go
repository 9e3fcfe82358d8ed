package parse

// Vocabulary holds the closed token sets the extractor recognizes. It is
// plain data so deployments can localize or extend the word lists without
// touching the matching logic.
type Vocabulary struct {
	// NumberWords maps single number-word tokens to their values.
	NumberWords map[rune]int
	// CounterWords are the measure words that may follow a quantity,
	// e.g. cup, slice, portion, piece.
	CounterWords []rune
	// Delimiters are conjunction characters that terminate an item name,
	// e.g. "three cups of americano AND one slice of toast".
	Delimiters []rune
}

// DefaultVocabulary returns the vocabulary for Traditional Chinese orders.
// Number words cover one through ten only; quantities above ten must be
// written with ASCII digits.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NumberWords: map[rune]int{
			'一': 1, '二': 2, '兩': 2, '三': 3, '四': 4,
			'五': 5, '六': 6, '七': 7, '八': 8, '九': 9, '十': 10,
		},
		CounterWords: []rune{'杯', '片', '份', '個'},
		Delimiters:   []rune{'和', '跟', '與', '及'},
	}
}

// maxDigitRunValue bounds digit-run quantities. Runs past it are not
// plausible orders and would eventually overflow int, so they normalize to
// 0 like any other unparseable token.
const maxDigitRunValue = 1_000_000

// Normalize converts a quantity token to its integer value. The token is
// either an ASCII digit run or a single number word. Unknown tokens map to
// 0 so the caller can decide whether to skip or default the line.
func (v Vocabulary) Normalize(token string) int {
	if token == "" {
		return 0
	}

	if isASCIIDigits(token) {
		n := 0
		for i := 0; i < len(token); i++ {
			n = n*10 + int(token[i]-'0')
			if n > maxDigitRunValue {
				return 0
			}
		}
		return n
	}

	runes := []rune(token)
	if len(runes) != 1 {
		return 0
	}
	return v.NumberWords[runes[0]]
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
