package config

import "errors"

type scanState int

const (
	scanCode scanState = iota
	scanString
	scanStringEscape
	scanLineComment
	scanBlockComment
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// is plain JSON. Byte offsets of the remaining tokens are preserved, which
// keeps decode error positions meaningful.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)
	state := scanCode
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch state {
		case scanString:
			switch ch {
			case '\\':
				state = scanStringEscape
			case '"':
				state = scanCode
			}
		case scanStringEscape:
			state = scanString
		case scanLineComment:
			if ch == '\n' || ch == '\r' {
				state = scanCode
				continue
			}
			out[i] = ' '
		case scanBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = scanCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		case scanCode:
			switch {
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i], out[i+1] = ' ', ' '
				i++
				state = scanLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i], out[i+1] = ' ', ' '
				i++
				state = scanBlockComment
			case ch == ',':
				pendingComma = i
			case ch == '}' || ch == ']':
				if pendingComma >= 0 {
					out[pendingComma] = ' '
				}
				pendingComma = -1
			case ch == '"':
				pendingComma = -1
				state = scanString
			case !isJSONWhitespace(ch):
				pendingComma = -1
			}
		}
	}

	if state == scanBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return string(out), nil
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}
