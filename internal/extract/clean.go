package extract

import "strings"

// cleaned holds two views of a file's content with identical line structure.
// noComments drops comments but keeps string literals, for directive
// scanning. code drops comments and string literals both, for declaration
// and reference scanning. Stripped characters become spaces so line and
// column positions survive.
type cleaned struct {
	noComments []string
	code       []string
}

// cleanError describes a structural defect found while stripping.
type cleanError struct {
	line   int // 1-based
	reason string
}

func (e *cleanError) Error() string { return e.reason }

type cleanState int

const (
	stateCode cleanState = iota
	stateLineComment
	stateBlockComment
	stateString // single-quoted or double-quoted, one line
	stateTripleString
)

// clean strips comments and strings from Dart source in one pass.
// Block comments nest. Raw strings (r'...') take no escapes. An unterminated
// block comment, triple string, or single-line string is a structural parse
// failure.
func clean(content string) (*cleaned, *cleanError) {
	var noComments, code strings.Builder
	noComments.Grow(len(content))
	code.Grow(len(content))

	state := stateCode
	blockDepth := 0
	var quote byte  // active string delimiter
	raw := false    // raw string, escapes inert
	line := 1       // current 1-based line
	openedAt := 1   // line where the active comment/string opened

	emit := func(b byte, inString bool) {
		if b == '\n' {
			noComments.WriteByte('\n')
			code.WriteByte('\n')
			return
		}
		if inString {
			noComments.WriteByte(b)
			code.WriteByte(' ')
			return
		}
		noComments.WriteByte(b)
		code.WriteByte(b)
	}
	blank := func(b byte) {
		if b == '\n' {
			noComments.WriteByte('\n')
			code.WriteByte('\n')
			return
		}
		noComments.WriteByte(' ')
		code.WriteByte(' ')
	}

	for i := 0; i < len(content); i++ {
		b := content[i]
		if b == '\n' {
			line++
		}

		switch state {
		case stateCode:
			switch {
			case b == '/' && i+1 < len(content) && content[i+1] == '/':
				state = stateLineComment
				openedAt = line
				blank(b)
			case b == '/' && i+1 < len(content) && content[i+1] == '*':
				state = stateBlockComment
				blockDepth = 1
				openedAt = line
				blank(b)
				blank(content[i+1])
				i++
			case b == '\'' || b == '"':
				raw = i > 0 && content[i-1] == 'r'
				quote = b
				if i+2 < len(content) && content[i+1] == b && content[i+2] == b {
					state = stateTripleString
					openedAt = line
					emit(b, true)
					emit(content[i+1], true)
					emit(content[i+2], true)
					i += 2
				} else {
					state = stateString
					openedAt = line
					emit(b, true)
				}
			default:
				emit(b, false)
			}

		case stateLineComment:
			if b == '\n' {
				state = stateCode
				emit(b, false)
			} else {
				blank(b)
			}

		case stateBlockComment:
			switch {
			case b == '/' && i+1 < len(content) && content[i+1] == '*':
				blockDepth++
				blank(b)
				blank(content[i+1])
				i++
			case b == '*' && i+1 < len(content) && content[i+1] == '/':
				blockDepth--
				blank(b)
				blank(content[i+1])
				i++
				if blockDepth == 0 {
					state = stateCode
				}
			default:
				blank(b)
			}

		case stateString:
			switch {
			case b == '\\' && !raw && i+1 < len(content):
				emit(b, true)
				if content[i+1] != '\n' {
					emit(content[i+1], true)
					i++
				}
			case b == quote:
				emit(b, true)
				state = stateCode
			case b == '\n':
				return nil, &cleanError{line: openedAt, reason: "unterminated string literal"}
			default:
				emit(b, true)
			}

		case stateTripleString:
			switch {
			case b == '\\' && !raw && i+1 < len(content):
				emit(b, true)
				if content[i+1] != '\n' {
					emit(content[i+1], true)
					i++
				}
			case b == quote && i+2 < len(content) && content[i+1] == quote && content[i+2] == quote:
				emit(b, true)
				emit(content[i+1], true)
				emit(content[i+2], true)
				i += 2
				state = stateCode
			default:
				emit(b, true)
			}
		}
	}

	switch state {
	case stateBlockComment:
		return nil, &cleanError{line: openedAt, reason: "unterminated block comment"}
	case stateString:
		return nil, &cleanError{line: openedAt, reason: "unterminated string literal"}
	case stateTripleString:
		return nil, &cleanError{line: openedAt, reason: "unterminated multiline string"}
	}

	return &cleaned{
		noComments: strings.Split(noComments.String(), "\n"),
		code:       strings.Split(code.String(), "\n"),
	}, nil
}
