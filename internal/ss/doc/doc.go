// Package doc models a stored document as an ordered sequence of sentences,
// each an ordered sequence of tokens. This is the unit of editing: write
// sessions lock and replace exactly one sentence.
package doc

import "strings"

// Document is the in-memory, ephemeral token form of a file. It always
// contains at least one (possibly empty) sentence.
type Document struct {
	Sentences [][]string
}

func isDelimiter(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Tokenize splits plain text into sentences of tokens. Whitespace separates
// tokens and is never kept. A sentence delimiter (. ! ?) attaches to the
// preceding token, or becomes a one-character token when the sentence is
// empty, and always opens a new (possibly empty) sentence. A trailing
// delimiter therefore leaves an empty trailing sentence.
func Tokenize(text string) *Document {
	d := &Document{Sentences: [][]string{nil}}
	cur := 0
	tokStart := -1

	flush := func(end int) {
		if tokStart >= 0 {
			d.Sentences[cur] = append(d.Sentences[cur], text[tokStart:end])
			tokStart = -1
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case isSpace(c):
			flush(i)
		case isDelimiter(c):
			if tokStart >= 0 {
				d.Sentences[cur] = append(d.Sentences[cur], text[tokStart:i+1])
				tokStart = -1
			} else if n := len(d.Sentences[cur]); n > 0 {
				d.Sentences[cur][n-1] += string(c)
			} else {
				d.Sentences[cur] = append(d.Sentences[cur], string(c))
			}
			d.Sentences = append(d.Sentences, nil)
			cur++
		default:
			if tokStart < 0 {
				tokStart = i
			}
		}
	}
	flush(len(text))
	return d
}

// Compose reverses Tokenize: tokens joined by single spaces, sentences
// joined by single spaces. Delimiters ride inside their tokens, so sentence
// structure round-trips.
func (d *Document) Compose() string {
	var b strings.Builder
	for i, sent := range d.Sentences {
		if i > 0 {
			b.WriteByte(' ')
		}
		for j, tok := range sent {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
		}
	}
	return b.String()
}

// NumSentences returns the sentence count.
func (d *Document) NumSentences() int { return len(d.Sentences) }

// WordCount returns the token count of sentence idx, or 0 when out of range.
func (d *Document) WordCount(idx int) int {
	if idx < 0 || idx >= len(d.Sentences) {
		return 0
	}
	return len(d.Sentences[idx])
}

// Grow extends the document with empty sentences until sentence idx is
// addressable.
func (d *Document) Grow(idx int) {
	for len(d.Sentences) <= idx {
		d.Sentences = append(d.Sentences, nil)
	}
}

// Sentence returns a deep copy of sentence idx, or nil when out of range.
func (d *Document) Sentence(idx int) []string {
	if idx < 0 || idx >= len(d.Sentences) {
		return nil
	}
	out := make([]string, len(d.Sentences[idx]))
	copy(out, d.Sentences[idx])
	return out
}

// SetSentence replaces sentence idx with the given tokens, growing the
// document as needed.
func (d *Document) SetSentence(idx int, tokens []string) {
	d.Grow(idx)
	d.Sentences[idx] = tokens
}

// Insert splices the whitespace-separated tokens of content into sentence
// sidx before token widx. Appending (widx equal to the word count) has two
// refinements:
//
//   - a single lone delimiter token attaches to the last existing token
//     instead of growing the sentence;
//   - when the last existing token ends with a delimiter, the delimiter
//     migrates to the last inserted token so the sentence terminator stays
//     at the true end.
//
// Returns false when sidx is out of range, widx is negative or past the
// word count, or content holds no tokens.
func (d *Document) Insert(sidx, widx int, content string) bool {
	if sidx < 0 || sidx >= len(d.Sentences) {
		return false
	}
	row := d.Sentences[sidx]
	wc := len(row)
	if widx < 0 {
		return false
	}

	toks := strings.Fields(content)
	if len(toks) == 0 {
		return false
	}

	// Lone delimiter on append: glue to the previous token.
	if widx == wc && wc > 0 && len(toks) == 1 && len(toks[0]) == 1 && isDelimiter(toks[0][0]) {
		row[wc-1] += toks[0]
		return true
	}
	if widx > wc {
		return false
	}

	if widx == wc && wc > 0 {
		last := row[wc-1]
		if n := len(last); n > 0 && isDelimiter(last[n-1]) {
			row[wc-1] = last[:n-1]
			toks[len(toks)-1] += string(last[n-1])
		}
	}

	merged := make([]string, 0, wc+len(toks))
	merged = append(merged, row[:widx]...)
	merged = append(merged, toks...)
	merged = append(merged, row[widx:]...)
	d.Sentences[sidx] = merged
	return true
}

// Unescape decodes the escape sequences the client shell may embed in APPLY
// content: \n, \t, \r, \\ and \".
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
