// Package normalize cleans remote entry text before it is rendered into a document.
// Invalid UTF-8 is dropped, text is NFC composed, control and invisible format
// characters are removed (ZWJ stays so emoji sequences survive), whitespace
// collapses inside lines and blank line runs shrink to one. Case, punctuation
// and line breaks are kept
package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const zwj = '\u200d'

// Normalizer is safe for concurrent use
type Normalizer struct {
	chains sync.Pool
}

// New constructs a Normalizer
func New() *Normalizer {
	n := &Normalizer{}
	n.chains.New = func() any {
		return transform.Chain(
			runes.ReplaceIllFormed(),
			norm.NFC,
			runes.Remove(runes.Predicate(unwanted)),
		)
	}
	return n
}

// unwanted matches C0, DEL and C1 controls other than line breaks and tabs,
// plus format characters such as zero widths and the BOM
func unwanted(r rune) bool {
	switch r {
	case '\n', '\r', '\t', zwj:
		return false
	case utf8.RuneError:
		return true
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// Normalize returns the display form of s
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	tr := n.chains.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	n.chains.Put(tr)
	if err != nil {
		out = strings.ToValidUTF8(s, "")
	}
	return tidyLines(out)
}

// IsBlank reports whether s has nothing left to render after normalization
func (n *Normalizer) IsBlank(s string) bool {
	return n.Normalize(s) == ""
}

func tidyLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := make([]string, 0, strings.Count(s, "\n")+1)
	gap := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		switch {
		case line != "":
			if gap && len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, line)
			gap = false
		default:
			gap = true
		}
	}
	return strings.Join(lines, "\n")
}
