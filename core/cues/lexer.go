// Package cues places sound effects along a spoken line and plays them in
// step with the voice audio.
//
// Effects are written inline as markers of the form `[SOUND_EFFECT: TAG]`.
// The spoken projection of a line is the line with every marker removed, cue
// positions are expressed as rune offsets into that projection.
package cues

import (
	"strings"
	"unicode"
)

const markerKeyword = "SOUND_EFFECT"

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenTag
)

// Token is a run of spoken text or a single effect marker.
type Token struct {
	Kind TokenKind
	// Text is the literal text of a TokenText.
	Text string
	// Tag is the upper-cased effect tag of a TokenTag.
	Tag string
	// Raw is the marker exactly as written.
	Raw string
}

// Lex splits text into text and marker tokens. Brackets that do not form a
// well-formed marker stay part of the surrounding text.
func Lex(text string) []Token {
	var tokens []Token
	var pending strings.Builder

	flushText := func() {
		if pending.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Text: pending.String()})
			pending.Reset()
		}
	}

	for i := 0; i < len(text); {
		if text[i] == '[' {
			if tag, length, ok := scanMarker(text[i:]); ok {
				flushText()
				tokens = append(tokens, Token{Kind: TokenTag, Tag: tag, Raw: text[i : i+length]})
				i += length
				continue
			}
		}
		pending.WriteByte(text[i])
		i++
	}
	flushText()

	return tokens
}

// scanMarker matches `[SOUND_EFFECT: TAG]` at the start of s and returns the
// normalized tag and the marker length in bytes.
func scanMarker(s string) (string, int, bool) {
	pos := 1
	if len(s) < pos+len(markerKeyword) || !strings.EqualFold(s[pos:pos+len(markerKeyword)], markerKeyword) {
		return "", 0, false
	}
	pos += len(markerKeyword)
	pos = skipSpaces(s, pos)

	if pos >= len(s) || s[pos] != ':' {
		return "", 0, false
	}
	pos = skipSpaces(s, pos+1)

	tagStart := pos
	for pos < len(s) && isTagByte(s[pos]) {
		pos++
	}
	if pos == tagStart {
		return "", 0, false
	}
	tag := strings.ToUpper(s[tagStart:pos])
	pos = skipSpaces(s, pos)

	if pos >= len(s) || s[pos] != ']' {
		return "", 0, false
	}
	return tag, pos + 1, true
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && s[pos] < unicode.MaxASCII && unicode.IsSpace(rune(s[pos])) {
		pos++
	}
	return pos
}

func isTagByte(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
