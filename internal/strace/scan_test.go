package strace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanQuoted(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantEnd int
		wantErr bool
	}{
		{
			name:    "simple token",
			input:   `"gcc", [`,
			want:    "gcc",
			wantEnd: 5,
		},
		{
			name:    "empty token",
			input:   `""`,
			want:    "",
			wantEnd: 2,
		},
		{
			name:    "escaped quote stays inside the token",
			input:   `"a\"b"`,
			want:    `a\"b`,
			wantEnd: 6,
		},
		{
			name:    "literal bracket inside the token",
			input:   `"weird]name.c"`,
			want:    "weird]name.c",
			wantEnd: 14,
		},
		{
			name:    "escaped backslash before closing quote",
			input:   `"a\\"`,
			want:    `a\\`,
			wantEnd: 5,
		},
		{
			name:    "other escapes are left for later unescaping",
			input:   `"a\tb"`,
			want:    `a\tb`,
			wantEnd: 6,
		},
		{
			name:    "missing opening quote",
			input:   `gcc"`,
			wantErr: true,
		},
		{
			name:    "unterminated token",
			input:   `"gcc`,
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, end, err := scanQuoted(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestScanArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantEnd int
		wantErr bool
	}{
		{
			name:    "empty array",
			input:   `[]`,
			want:    nil,
			wantEnd: 2,
		},
		{
			name:    "single token",
			input:   `["gcc"]`,
			want:    []string{"gcc"},
			wantEnd: 7,
		},
		{
			name:    "several tokens",
			input:   `["gcc", "-c", "a.c"], 0x7ffd`,
			want:    []string{"gcc", "-c", "a.c"},
			wantEnd: 20,
		},
		{
			name:  "bracket inside a quoted file name does not close the array",
			input: `["gcc", "-c", "odd]file.c", "-o", "odd]file.o"]`,
			want:  []string{"gcc", "-c", "odd]file.c", "-o", "odd]file.o"},
			// full input consumed
			wantEnd: 47,
		},
		{
			name:    "escaped quote inside a token",
			input:   `["-DNAME=\"x\""]`,
			want:    []string{`-DNAME=\"x\"`},
			wantEnd: 16,
		},
		{
			name:    "missing opening bracket",
			input:   `"gcc"]`,
			wantErr: true,
		},
		{
			name:    "unterminated array",
			input:   `["gcc", "-c"`,
			wantErr: true,
		},
		{
			name:    "unquoted element",
			input:   `[gcc]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, end, err := scanArgv(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain passthrough", input: "src/main.c", want: "src/main.c"},
		{name: "escaped quote", input: `say \"hi\"`, want: `say "hi"`},
		{name: "tab and newline", input: `a\tb\nc`, want: "a\tb\nc"},
		{name: "escaped backslash", input: `C:\\tmp`, want: `C:\tmp`},
		{name: "hex escape", input: `\x41\x62`, want: "Ab"},
		{name: "octal escape", input: `\101`, want: "A"},
		{name: "short octal escape", input: `\0`, want: "\x00"},
		{name: "high byte maps to the same code point", input: `\xe9`, want: "\u00e9"},
		{name: "unknown escape kept verbatim", input: `\q`, want: `\q`},
		{name: "trailing backslash", input: `oops\`, wantErr: true},
		{name: "bad hex escape", input: `\xzz`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := unescape(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
