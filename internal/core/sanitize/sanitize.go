// Package sanitize cleans user-supplied display text before it is stored
// or echoed back. Project names and uploaded file names arrive from
// arbitrary clients and can carry control bytes, fullwidth lookalikes,
// zero-width characters and invalid UTF-8
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Strip control characters (C0 except tab, DEL, C1)
// 3 Unicode NFC normalization
// 4 Remove zero-width and other format characters
// 5 Width fold fullwidth forms to ASCII
// 6 Collapse whitespace runs to single spaces and trim
package sanitize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// Name cleans a human-facing name following the pipeline described above
func Name(s string) string {
	if s == "" {
		return ""
	}

	// 1 repair UTF-8 drop invalid bytes
	s = strings.ToValidUTF8(s, "")

	// 2 strip control characters
	s = stripControls(s)

	// 3-5 transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// 6 collapse whitespace and trim
	return collapseSpaces(ns)
}

// FileName cleans an uploaded file name. Beyond Name it also strips any
// path components, so "..\..\evil.png" and "/etc/passwd" become bare names
func FileName(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	s = Name(s)
	// a name that collapsed to dots only is no name at all
	if strings.Trim(s, ".") == "" {
		return ""
	}
	return s
}

// stripControls removes C0 controls except '\t', DEL and C1 controls.
// Fast path returns s unchanged when no cleaning is needed
func stripControls(s string) string {
	n := len(s)
	i := 0
	for i < n {
		b := s[i]
		if b < 0x20 {
			if b == '\t' {
				i++
				continue
			}
			break
		}
		if b == 0x7F {
			break
		}
		if b < 0x80 {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x80 && r <= 0x9F {
			break
		}
		i += size
	}
	if i == n {
		return s
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(s[:i])
	for i < n {
		c := s[i]
		if c < 0x20 {
			if c == '\t' {
				b.WriteByte(c)
			}
			i++
			continue
		}
		if c == 0x7F {
			i++
			continue
		}
		if c < 0x80 {
			b.WriteByte(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x80 && r <= 0x9F {
			i += size
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
