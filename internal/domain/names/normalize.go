package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases a name, strips accents and punctuation noise and
// collapses whitespace. Two spellings of one name normalise identically.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}
	name = strings.NewReplacer(".", " ", "'", "", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Variants returns name followed by its deterministic spelling variants:
// with and without a trailing " FC", "Utd"/"United" and "&"/"and" swaps.
func Variants(name string) []string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil
	}
	out := []string{name}
	add := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			return
		}
		for _, have := range out {
			if have == v {
				return
			}
		}
		out = append(out, v)
	}

	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, " afc"):
		add(name[:len(name)-len(" afc")])
	case strings.HasSuffix(lower, " fc"):
		add(name[:len(name)-len(" fc")])
	default:
		add(name + " FC")
	}
	if strings.HasPrefix(lower, "fc ") {
		add(name[len("fc "):])
	}

	for _, base := range append([]string(nil), out...) {
		add(swapWord(base, "Utd", "United"))
		add(swapWord(base, "United", "Utd"))
		add(swapWord(base, "&", "and"))
		add(swapWord(base, "and", "&"))
	}
	return out
}

// swapWord replaces whole-word occurrences of from with to, case-insensitively.
func swapWord(s, from, to string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if strings.EqualFold(w, from) {
			words[i] = to
		}
	}
	return strings.Join(words, " ")
}
