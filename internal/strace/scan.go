package strace

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// scanQuoted extracts one double-quoted token from s, which must start with
// the opening quote. It returns the raw (still escaped) content and the index
// just past the closing quote.
//
// The token ends at the first unescaped double quote: a backslash escapes the
// character after it, so \" is a literal quote and \\ is a literal backslash.
// The scan is a single forward pass with an explicit escape flag; no
// backtracking, so adversarial input stays linear.
func scanQuoted(s string) (raw string, end int, err error) {
	if len(s) == 0 || s[0] != '"' {
		return "", 0, fmt.Errorf("expected opening quote")
	}
	escaped := false
	for i := 1; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			return s[1:i], i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted token")
}

// scanArgv extracts a bracketed, comma-separated list of quoted tokens from
// s, which must start with '['. It returns the raw tokens and the index just
// past the closing ']'.
//
// The list ends at the first ']' that closes the top-level array. A ']' that
// is part of a file name does not terminate the scan because file names are
// quoted tokens and the quote scan consumes them whole.
func scanArgv(s string) (args []string, end int, err error) {
	if len(s) == 0 || s[0] != '[' {
		return nil, 0, fmt.Errorf("expected opening bracket")
	}
	i := 1
	for {
		for i < len(s) && (s[i] == ',' || s[i] == ' ') {
			i++
		}
		if i >= len(s) {
			return nil, 0, fmt.Errorf("unterminated argument array")
		}
		if s[i] == ']' {
			return args, i + 1, nil
		}
		raw, n, qerr := scanQuoted(s[i:])
		if qerr != nil {
			return nil, 0, fmt.Errorf("argument %d: %w", len(args), qerr)
		}
		args = append(args, raw)
		i += n
	}
}

// unescape decodes a raw token extracted by scanQuoted.
//
// strace escapes non-printable bytes in paths and arguments, so the token may
// contain C-style escape sequences (\n, \t, \", \\, \xNN, octal \NNN). The
// escapes are resolved to bytes first and the byte string is then decoded as
// Latin-1, which maps bytes 0-255 onto the same code points. That keeps the
// round-trip lossless regardless of what encoding the traced build used.
func unescape(raw string) (string, error) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}

	buf := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			buf = append(buf, c)
			continue
		}
		if i+1 >= len(raw) {
			return "", fmt.Errorf("trailing backslash in token %q", raw)
		}
		i++
		switch raw[i] {
		case 'n':
			buf = append(buf, '\n')
		case 't':
			buf = append(buf, '\t')
		case 'r':
			buf = append(buf, '\r')
		case 'a':
			buf = append(buf, '\a')
		case 'b':
			buf = append(buf, '\b')
		case 'f':
			buf = append(buf, '\f')
		case 'v':
			buf = append(buf, '\v')
		case '\\', '"', '\'':
			buf = append(buf, raw[i])
		case 'x':
			hi, okHi := hexDigit(byteAt(raw, i+1))
			lo, okLo := hexDigit(byteAt(raw, i+2))
			if !okHi || !okLo {
				return "", fmt.Errorf("invalid hex escape in token %q", raw)
			}
			buf = append(buf, hi<<4|lo)
			i += 2
		case '0', '1', '2', '3', '4', '5', '6', '7':
			// Up to three octal digits.
			v := raw[i] - '0'
			for n := 0; n < 2 && i+1 < len(raw); n++ {
				d := raw[i+1]
				if d < '0' || d > '7' {
					break
				}
				v = v<<3 | (d - '0')
				i++
			}
			buf = append(buf, v)
		default:
			// Unknown escape: keep both characters, same as the trace
			// tools that produced it would.
			buf = append(buf, '\\', raw[i])
		}
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("decoding token %q: %w", raw, err)
	}
	return string(decoded), nil
}

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
