package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "empty text is one empty sentence",
			text: "",
			want: [][]string{nil},
		},
		{
			name: "single sentence without delimiter",
			text: "hello world",
			want: [][]string{{"hello", "world"}},
		},
		{
			name: "delimiter attaches to preceding token and opens empty sentence",
			text: "Hello world.",
			want: [][]string{{"Hello", "world."}, nil},
		},
		{
			name: "two sentences",
			text: "Hi there. Bye now",
			want: [][]string{{"Hi", "there."}, {"Bye", "now"}},
		},
		{
			name: "bare delimiter becomes one-char token",
			text: ". next",
			want: [][]string{{"."}, {"next"}},
		},
		{
			name: "whitespace runs collapse",
			text: "a\t b\n\nc",
			want: [][]string{{"a", "b", "c"}},
		},
		{
			name: "delimiter after space glues to last token",
			text: "abc !",
			want: [][]string{{"abc!"}, nil},
		},
		{
			name: "all three delimiters",
			text: "a. b! c?",
			want: [][]string{{"a."}, {"b!"}, {"c?"}, nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			require.Equal(t, len(tt.want), got.NumSentences())
			for i, sent := range tt.want {
				assert.Equal(t, []string(sent), got.Sentences[i], "sentence %d", i)
			}
		})
	}
}

func TestComposeRoundTrip(t *testing.T) {
	// Round-trip modulo whitespace normalization: internal runs collapse
	// to single spaces and delimiters stay glued to their tokens.
	tests := []struct {
		text string
		want string
	}{
		{"hello world", "hello world"},
		{"hello   world", "hello world"},
		{"Hi there. Bye now", "Hi there. Bye now"},
		{"a.\tb!  c?", "a. b! c? "},
		{"one\ntwo\nthree", "one two three"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.text).Compose(), "input %q", tt.text)
	}
}

func TestInsertBasicAppend(t *testing.T) {
	// CREATE then APPLY 0 "Hello", 1 "world", 2 "." composes "Hello world."
	d := &Document{Sentences: [][]string{nil}}
	require.True(t, d.Insert(0, 0, "Hello"))
	require.True(t, d.Insert(0, 1, "world"))
	require.True(t, d.Insert(0, 2, "."))
	assert.Equal(t, "Hello world.", d.Compose())
}

func TestInsertBefore(t *testing.T) {
	d := Tokenize("x world.")
	require.True(t, d.Insert(0, 0, "Hello"))
	assert.Equal(t, "Hello x world. ", d.Compose())
	assert.Equal(t, []string{"Hello", "x", "world."}, d.Sentences[0])
}

func TestInsertDelimiterMigration(t *testing.T) {
	// Appending after "a." moves the delimiter to the new last token.
	d := Tokenize("a.")
	require.True(t, d.Insert(0, 1, "b"))
	assert.Equal(t, []string{"a", "b."}, d.Sentences[0])
}

func TestInsertMultiTokenContent(t *testing.T) {
	d := Tokenize("start end.")
	require.True(t, d.Insert(0, 1, "one two"))
	assert.Equal(t, []string{"start", "one", "two", "end."}, d.Sentences[0])
}

func TestInsertMultiTokenAppendMigratesDelimiter(t *testing.T) {
	d := Tokenize("a.")
	require.True(t, d.Insert(0, 1, "b c"))
	assert.Equal(t, []string{"a", "b", "c."}, d.Sentences[0])
}

func TestInsertLoneDelimiterAttaches(t *testing.T) {
	d := Tokenize("hello world")
	require.True(t, d.Insert(0, 2, "!"))
	assert.Equal(t, []string{"hello", "world!"}, d.Sentences[0])
}

func TestInsertRejectsBadIndexes(t *testing.T) {
	d := Tokenize("a b")
	assert.False(t, d.Insert(0, -1, "x"))
	assert.False(t, d.Insert(0, 3, "x"))
	assert.False(t, d.Insert(1, 0, "x"))
	assert.False(t, d.Insert(-1, 0, "x"))
	assert.False(t, d.Insert(0, 0, "   "))
}

func TestGrowAndSetSentence(t *testing.T) {
	d := Tokenize("first.")
	d.SetSentence(3, []string{"fourth"})
	require.Equal(t, 4, d.NumSentences())
	assert.Equal(t, "first.   fourth", d.Compose())
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`a\tb`, "a\tb"},
		{`a\rb`, "a\rb"},
		{`a\\b`, `a\b`},
		{`a\"b`, `a"b`},
		{`trailing\`, `trailing\`},
		{`\q`, "q"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unescape(tt.in), "input %q", tt.in)
	}
}
