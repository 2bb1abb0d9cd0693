package eval

import (
	"strconv"
	"strings"

	"github.com/ardnew/nestex/lang"
)

// Substitute replaces each placeholder {N} in template with args[N] and
// decodes the escape tokens [lang.EscapeOpen] and [lang.EscapeClose] into
// literal braces. Placeholders without a corresponding argument and all other
// text are copied verbatim. Arguments are inserted without decoding.
//
// Substitute sees only text, so it cannot tell a placeholder from the same
// characters escaped in the input. The evaluator substitutes by
// [lang.Node.Parts] instead.
func Substitute(template string, args []string) string {
	var sb strings.Builder

	sb.Grow(len(template))

	for i := 0; i < len(template); {
		switch rest := template[i:]; {
		case strings.HasPrefix(rest, lang.EscapeOpen):
			sb.WriteByte('{')
			i += len(lang.EscapeOpen)

		case strings.HasPrefix(rest, lang.EscapeClose):
			sb.WriteByte('}')
			i += len(lang.EscapeClose)

		case rest[0] == '{':
			if n, width, ok := placeholder(rest); ok && n < len(args) {
				sb.WriteString(args[n])
				i += width

				continue
			}

			sb.WriteByte('{')
			i++

		default:
			sb.WriteByte(rest[0])
			i++
		}
	}

	return sb.String()
}

// placeholder parses a leading {N} in s, returning N and the width of the
// placeholder in bytes.
func placeholder(s string) (n, width int, ok bool) {
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return 0, 0, false
	}

	digits := s[1:end]
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, false
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}

	return n, end + 1, true
}
