package dispatch

import (
	"fmt"
	"strconv"
	"strings"
)

// Format replaces the positional placeholders {0}, {1}, ... in tmpl with the
// string form of args. Placeholders without a matching argument are kept.
func Format(tmpl string, args ...any) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open

		b.WriteString(tmpl[:open])
		i, err := strconv.Atoi(tmpl[open+1 : end])
		if err != nil || i < 0 || i >= len(args) {
			b.WriteString(tmpl[open : end+1])
		} else {
			b.WriteString(fmt.Sprint(args[i]))
		}
		tmpl = tmpl[end+1:]
	}
}
