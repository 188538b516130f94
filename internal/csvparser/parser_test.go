package csvparser

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{
			name: "simple rows",
			in:   "a,b\n1,2\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "trailing row without newline",
			in:   "a,b\n1,2",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "crlf and bare cr",
			in:   "a,b\r\n1,2\r3,4\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name: "bom stripped",
			in:   "\uFEFFId,Name\n1,x\n",
			want: [][]string{{"Id", "Name"}, {"1", "x"}},
		},
		{
			name: "fields trimmed",
			in:   "  a , b  \n",
			want: [][]string{{"a", "b"}},
		},
		{
			name: "quoted delimiter",
			in:   `"a,b",c` + "\n",
			want: [][]string{{"a,b", "c"}},
		},
		{
			name: "quoted newline",
			in:   "\"line1\nline2\",x\n",
			want: [][]string{{"line1\nline2", "x"}},
		},
		{
			name: "doubled quote",
			in:   `"say ""hi""",x`,
			want: [][]string{{`say "hi"`, "x"}},
		},
		{
			name: "blank lines dropped",
			in:   "a\n\n\nb\n",
			want: [][]string{{"a"}, {"b"}},
		},
		{
			name: "empty trailing fields kept",
			in:   "a,,\n",
			want: [][]string{{"a", "", ""}},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "newline only",
			in:   "\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParse_UnterminatedQuoteAbsorbsRest(t *testing.T) {
	rows := Parse("a,\"b\nc,d\n")

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b\nc,d"}, rows[0])
}

func TestParse_Golden(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "export.csv"))
	require.NoError(t, err)

	rows := Parse(string(raw))

	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d\n", len(rows))
	for _, row := range rows {
		quoted := make([]string, len(row))
		for i, field := range row {
			quoted[i] = fmt.Sprintf("%q", field)
		}
		b.WriteString(strings.Join(quoted, " | "))
		b.WriteString("\n")
	}

	g := goldie.New(t)
	g.Assert(t, "export", []byte(b.String()))
}

// quoteAll encodes fields the way spreadsheet exports do: every field quoted,
// quotes doubled.
func quoteAll(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func TestParse_RoundTrip(t *testing.T) {
	alphabet := []string{"a", "B", "7", ",", "\n", `"`, " ", "é", ";"}
	rng := rand.New(rand.NewSource(42))

	randomField := func() string {
		var b strings.Builder
		b.WriteString("x")
		for n := rng.Intn(12); n > 0; n-- {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		b.WriteString("y")
		return b.String()
	}

	for iter := 0; iter < 200; iter++ {
		rows := make([][]string, 1+rng.Intn(5))
		for r := range rows {
			rows[r] = make([]string, 1+rng.Intn(4))
			for c := range rows[r] {
				rows[r][c] = randomField()
			}
		}

		require.Equal(t, rows, Parse(quoteAll(rows)), "iteration %d", iter)
	}
}
