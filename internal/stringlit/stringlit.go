package stringlit

import (
	"fmt"
	"strings"
)

// Decode decodes a charstring literal token text.
//
// A literal is enclosed in double quotes; a doubled quote inside it stands
// for one quote character. Line breaks are kept, \r\n is normalized to \n.
func Decode(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("invalid charstring literal")
	}
	body := normalizeNewlines(lit[1 : len(lit)-1])
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '"' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(body) || body[i+1] != '"' {
			return "", fmt.Errorf("unescaped quote at offset %d", i+1)
		}
		b.WriteByte('"')
		i++
	}
	return b.String(), nil
}

func normalizeNewlines(s string) string {
	// Keep this small and deterministic: normalize \r\n and \r to \n.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
