package plan

import (
	"strings"
	"unicode/utf8"
)

type likeToken struct {
	kind byte // 'c' literal rune, '_' any rune, '%' any run of runes
	r    rune
}

// likePattern is a compiled SQL LIKE pattern.
// '%' matches any run of characters, '_' exactly one, and '\' escapes the next character.
type likePattern struct {
	tokens   []likeToken
	foldCase bool
}

func compileLike(pattern string, foldCase bool) likePattern {
	if foldCase {
		pattern = strings.ToLower(pattern)
	}
	p := likePattern{foldCase: foldCase}
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			p.tokens = append(p.tokens, likeToken{kind: 'c', r: r})
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			// collapse runs of '%'
			if n := len(p.tokens); n > 0 && p.tokens[n-1].kind == '%' {
				continue
			}
			p.tokens = append(p.tokens, likeToken{kind: '%'})
		case r == '_':
			p.tokens = append(p.tokens, likeToken{kind: '_'})
		default:
			p.tokens = append(p.tokens, likeToken{kind: 'c', r: r})
		}
	}
	if escaped {
		// a trailing escape matches a literal backslash
		p.tokens = append(p.tokens, likeToken{kind: 'c', r: '\\'})
	}
	return p
}

// match runs an iterative backtracking match that remembers the last '%'.
func (p likePattern) match(s string) bool {
	if p.foldCase {
		s = strings.ToLower(s)
	}
	sp, tp := 0, 0
	star, backtrack := -1, -1
	for sp < len(s) {
		r, size := utf8.DecodeRuneInString(s[sp:])
		if tp < len(p.tokens) {
			tok := p.tokens[tp]
			if tok.kind == '_' || (tok.kind == 'c' && tok.r == r) {
				sp += size
				tp++
				continue
			}
			if tok.kind == '%' {
				star = tp
				backtrack = sp
				tp++
				continue
			}
		}
		if star == -1 {
			return false
		}
		// let the last '%' absorb one more rune
		tp = star + 1
		_, size = utf8.DecodeRuneInString(s[backtrack:])
		backtrack += size
		sp = backtrack
	}
	for tp < len(p.tokens) && p.tokens[tp].kind == '%' {
		tp++
	}
	return tp == len(p.tokens)
}
