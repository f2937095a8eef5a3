package similarity

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// DefaultThreshold is the ratio above which two normalized titles count
	// as near-duplicates.
	DefaultThreshold = 0.85
	// StrictThreshold applies when both titles look like generated test or
	// bulk data, which tends toward long shared prefixes.
	StrictThreshold = 0.95
)

var (
	numberPattern     = regexp.MustCompile(`\d+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, trims, strips punctuation, and collapses whitespace
// so that cosmetic differences never affect the ratio.
func Normalize(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	var builder strings.Builder
	builder.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		builder.WriteRune(r)
	}
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(builder.String()), " ")
}

// Ratio computes a sequence-similarity ratio in [0, 1] between the normalized
// forms of a and b: twice the longest common subsequence over the combined
// length. Equal normalized strings score 1.
func Ratio(a, b string) float64 {
	left := []rune(Normalize(a))
	right := []rune(Normalize(b))
	if len(left) == 0 && len(right) == 0 {
		return 1
	}
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	common := longestCommonSubsequence(left, right)
	return 2 * float64(common) / float64(len(left)+len(right))
}

// TitlesAreSimilar reports whether two titles are close enough to be treated
// as duplicate candidates at the given threshold (<= 0 takes the default).
//
// Numeric-suffix exception: when both titles carry numeric tokens, the tokens
// differ, and the titles are identical once numbers are stripped, the pair is
// a numbered series ("Bulk test task 1" vs "Bulk test task 2") and is never
// similar. The exception wins over any ratio.
func TitlesAreSimilar(a, b string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	numbersA := numberPattern.FindAllString(a, -1)
	numbersB := numberPattern.FindAllString(b, -1)
	if len(numbersA) > 0 && len(numbersB) > 0 && !equalStrings(numbersA, numbersB) {
		if stripNumbers(a) == stripNumbers(b) {
			return false
		}
	}

	if looksGenerated(a) && looksGenerated(b) && threshold < StrictThreshold {
		threshold = StrictThreshold
	}
	return Ratio(a, b) >= threshold
}

func stripNumbers(title string) string {
	stripped := numberPattern.ReplaceAllString(strings.ToLower(title), "")
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(stripped), " ")
}

func looksGenerated(title string) bool {
	lowered := strings.ToLower(title)
	return strings.Contains(lowered, "test") || strings.Contains(lowered, "bulk")
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for index := range a {
		if a[index] != b[index] {
			return false
		}
	}
	return true
}

func longestCommonSubsequence(a, b []rune) int {
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				current[j] = previous[j-1] + 1
			} else if previous[j] >= current[j-1] {
				current[j] = previous[j]
			} else {
				current[j] = current[j-1]
			}
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
