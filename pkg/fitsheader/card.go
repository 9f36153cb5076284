// Package fitsheader reads and edits FITS headers as ordered lists of 80-column
// text cards.
//
// A Header is a value: every mutating method returns a new Header and leaves
// the receiver untouched, so a header can be shared freely between goroutines.
package fitsheader

import "strings"

// CardWidth is the fixed width of a FITS header card.
const CardWidth = 80

// CardType is the kind of a header card, inferred from its text.
type CardType int

const (
	TypeOther CardType = iota
	TypeString
	TypeInteger
	TypeReal
	TypeBoolean
	TypeComment
	TypeHistory
	TypeEnd
	TypeBlank
)

func (t CardType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeReal:
		return "real"
	case TypeBoolean:
		return "boolean"
	case TypeComment:
		return "comment"
	case TypeHistory:
		return "history"
	case TypeEnd:
		return "end"
	case TypeBlank:
		return "blank"
	default:
		return "other"
	}
}

// TypeOf classifies a card. Value types follow a syntactic heuristic rather
// than the FITS standard: a quoted value is a string (even '1.0'), T or F is a
// boolean, anything containing a '.' is real and everything else is an integer.
func TypeOf(card string) CardType {
	if strings.TrimSpace(card) == "" {
		return TypeBlank
	}
	if strings.HasPrefix(card, "COMMENT") {
		return TypeComment
	}
	if strings.HasPrefix(card, "HISTORY") {
		return TypeHistory
	}
	if isEnd(card) {
		return TypeEnd
	}
	value, ok := CardValue(card)
	if !ok || value == "" {
		return TypeOther
	}
	switch {
	case value[0] == '\'' || value[0] == '"':
		return TypeString
	case value == "T" || value == "F":
		return TypeBoolean
	case strings.Contains(value, "."):
		return TypeReal
	default:
		return TypeInteger
	}
}

func isEnd(card string) bool {
	field := card
	if len(field) > 8 {
		if strings.TrimSpace(field[8:]) != "" {
			return false
		}
		field = field[:8]
	}
	return strings.TrimSpace(field) == "END"
}

// CardKey returns the keyword of a card, or "" for cards that carry none
// (COMMENT, HISTORY, END, blank and cards without a value indicator).
func CardKey(card string) string {
	switch TypeOf(card) {
	case TypeComment, TypeHistory, TypeEnd, TypeBlank:
		return ""
	}
	eq := strings.IndexByte(card, '=')
	if eq < 0 {
		return ""
	}
	return strings.TrimSpace(card[:eq])
}

// CardValue returns the raw text between '=' and the comment delimiter,
// trimmed. Quoted values keep their quotes. A '/' inside a quoted value does
// not start a comment.
func CardValue(card string) (string, bool) {
	if strings.HasPrefix(card, "COMMENT") || strings.HasPrefix(card, "HISTORY") || isEnd(card) {
		return "", false
	}
	eq := strings.IndexByte(card, '=')
	if eq < 0 {
		return "", false
	}
	rest := card[eq+1:]
	valueEnd := commentStart(rest)
	if valueEnd < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:valueEnd]), true
}

// CardComment returns the text after the comment delimiter, with the single
// separating space removed.
func CardComment(card string) (string, bool) {
	if _, ok := CardValue(card); !ok {
		return "", false
	}
	rest := card[strings.IndexByte(card, '=')+1:]
	slash := commentStart(rest)
	if slash < 0 {
		return "", false
	}
	comment := rest[slash+1:]
	comment = strings.TrimPrefix(comment, " ")
	return strings.TrimRight(comment, " "), true
}

// commentStart finds the '/' that starts the comment in the text right of '=',
// skipping over a leading quoted string. It returns -1 when there is none.
func commentStart(rest string) int {
	i := 0
	for i < len(rest) && rest[i] == ' ' {
		i++
	}
	if i < len(rest) && (rest[i] == '\'' || rest[i] == '"') {
		q := rest[i]
		j := i + 1
		for j < len(rest) {
			if rest[j] == q {
				// FITS escapes a quote by doubling it
				if q == '\'' && j+1 < len(rest) && rest[j+1] == q {
					j += 2
					continue
				}
				break
			}
			j++
		}
		if j >= len(rest) {
			return -1
		}
		i = j + 1
	}
	slash := strings.IndexByte(rest[i:], '/')
	if slash < 0 {
		return -1
	}
	return i + slash
}

// unquote strips the quotes from a string value, undoubles escaped quotes and
// drops trailing padding.
func unquote(value string) string {
	if len(value) == 0 {
		return value
	}
	q := value[0]
	if q != '\'' && q != '"' {
		return value
	}
	inner := value[1:]
	if n := len(inner); n > 0 && inner[n-1] == q {
		inner = inner[:n-1]
	}
	if q == '\'' {
		inner = strings.ReplaceAll(inner, "''", "'")
	}
	return strings.TrimRight(inner, " ")
}

func padCard(card string) string {
	if len(card) >= CardWidth {
		return card[:CardWidth]
	}
	return card + strings.Repeat(" ", CardWidth-len(card))
}
