package model

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// label chains are stateful, so each caller borrows one
var labelPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// CanonicalName folds a feature or latent label to its wire form
// "Sleep Debt", "sleep-debt" and "ＳＬＥＥＰ_DEBT" all become "sleep_debt"
func CanonicalName(s string) string {
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if s == "" {
		return ""
	}
	tr := labelPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	labelPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(out))
	sep := false
	for _, r := range out {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		default:
			sep = true
		}
	}
	return b.String()
}

func canonicalSpec(s Spec) Spec {
	s.Version = strings.TrimSpace(s.Version)
	if s.Version == "" {
		s.Version = "unversioned"
	}
	feats := make([]string, len(s.Features))
	for i, n := range s.Features {
		feats[i] = CanonicalName(n)
	}
	lats := make([]string, len(s.Latents))
	for i, n := range s.Latents {
		lats[i] = CanonicalName(n)
	}
	s.Features, s.Latents = feats, lats
	if s.InputBound == 0 {
		s.InputBound = DefaultInputBound
	}
	if s.MinStd == 0 {
		s.MinStd = DefaultMinStd
	}
	return s
}
