// Package scoring evaluates aligned model responses: fuzzy validity
// against reference text, fuzzy correctness against ground truth, and
// line-number distance buckets.
package scoring

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// Normalize is the shared pre-processing applied before any fuzzy
// comparison: case folding, non-alphanumerics to spaces, collapsed
// whitespace. Every textual check uses this same function so scores
// stay comparable across modes.
func Normalize(s string) string {
	folded := foldCaser.String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// indelOptions scores substitutions as a delete plus an insert, which
// makes RatioForStrings equivalent to the classic sequence-matcher
// ratio.
var indelOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 2,
	Matches: levenshtein.IdenticalRunes,
}

// coarseScanThreshold is the haystack length above which the window
// scan uses a coarse stride first, then refines around the best hit.
// Whole-book reference texts run to hundreds of thousands of runes.
const coarseScanThreshold = 4096

// PartialRatio returns a 0-100 similarity score between the shorter of
// the two strings and its best-matching window in the longer one, after
// Normalize. A shorter string contained verbatim in the longer scores
// 100 regardless of what surrounds it.
func PartialRatio(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	short, long := []rune(na), []rune(nb)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	if strings.Contains(string(long), string(short)) {
		return 100
	}
	if len(short) == len(long) {
		return ratio(short, long)
	}

	stride := 1
	if len(long) > coarseScanThreshold {
		stride = len(short) / 2
		if stride < 1 {
			stride = 1
		}
	}

	best, bestAt := scanWindows(short, long, 0, len(long)-len(short), stride)
	if stride > 1 {
		lo := bestAt - stride
		if lo < 0 {
			lo = 0
		}
		hi := bestAt + stride
		if hi > len(long)-len(short) {
			hi = len(long) - len(short)
		}
		if refined, _ := scanWindows(short, long, lo, hi, 1); refined > best {
			best = refined
		}
	}
	return best
}

// scanWindows slides a fixed-length window over long[lo:hi+len(short)]
// and returns the best ratio and the offset it occurred at. The final
// window is always scored so the tail is never skipped.
func scanWindows(short, long []rune, lo, hi, stride int) (float64, int) {
	best, bestAt := 0.0, lo
	for i := lo; i <= hi; i += stride {
		if r := ratio(short, long[i:i+len(short)]); r > best {
			best, bestAt = r, i
		}
	}
	if last := hi; (last-lo)%stride != 0 {
		if r := ratio(short, long[last:last+len(short)]); r > best {
			best, bestAt = r, last
		}
	}
	return best, bestAt
}

func ratio(a, b []rune) float64 {
	return levenshtein.RatioForStrings(a, b, indelOptions) * 100
}
