// Package cursor implements the nearest-end separator rule and the
// quoted-content readers WPL field parsers share.
package cursor

import "strings"

// Cursor is a read-only view over the remaining input; advancing it never
// mutates the underlying string, so Opt/Alt backtracking is just saving
// and restoring an int.
type Cursor struct {
	s   string
	pos int
}

func New(s string) *Cursor { return &Cursor{s: s} }

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) SetPos(p int)   { c.pos = p }
func (c *Cursor) Remaining() string { return c.s[c.pos:] }
func (c *Cursor) AtEnd() bool    { return c.pos >= len(c.s) }
func (c *Cursor) Len() int       { return len(c.s) }

func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.s) {
		c.pos = len(c.s)
	}
}

// HasPrefix reports whether the remaining input starts with p.
func (c *Cursor) HasPrefix(p string) bool {
	return strings.HasPrefix(c.Remaining(), p)
}

// quoteForms lists recognized quote openers in priority order, mapped to
// their closers. `r#"..."#` is checked before `r"..."` since it is the
// longer prefix.
type quoteForm struct {
	open, close string
}

var forms = []quoteForm{
	{`r#"`, `"#`},
	{`r"`, `"`},
	{`"`, `"`},
}

// ReadQuoted reads one recognized quoted form starting at the cursor and
// returns its inner content (unescaped only for the plain `"..."` form,
// raw forms are returned verbatim), advancing the cursor past the closing
// quote. ok is false if the remaining input does not begin with a
// recognized quote opener.
func (c *Cursor) ReadQuoted() (content string, ok bool) {
	rest := c.Remaining()
	for _, f := range forms {
		if !strings.HasPrefix(rest, f.open) {
			continue
		}
		body := rest[len(f.open):]
		idx := findUnescapedClose(body, f.close, f.open == `"`)
		if idx < 0 {
			// Unbalanced quote: treated here as "read to end of input", the
			// most conservative option that never panics or loses data.
			c.Advance(len(rest))
			if f.open == `"` {
				return unescape(body), true
			}
			return body, true
		}
		raw := body[:idx]
		c.Advance(len(f.open) + idx + len(f.close))
		if f.open == `"` {
			return unescape(raw), true
		}
		return raw, true
	}
	return "", false
}

// findUnescapedClose finds the first occurrence of close in body that is
// not preceded by an odd run of backslashes, when honorEscapes is true.
// Raw string forms never honor escapes.
func findUnescapedClose(body, close string, honorEscapes bool) int {
	if !honorEscapes {
		return strings.Index(body, close)
	}
	for i := 0; i+len(close) <= len(body); i++ {
		if body[i:i+len(close)] != close {
			continue
		}
		bs := 0
		for j := i - 1; j >= 0 && body[j] == '\\'; j-- {
			bs++
		}
		if bs%2 == 0 {
			return i
		}
	}
	return -1
}

func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// NearestEnd computes the cut index for a field read with primary
// separator p and secondary end s: min(find(p), find(s)) if both exist;
// else whichever is present; else end-of-line.
// When neither delimiter is present, foundDelim is false and cut is the
// index of the first newline, or the length of the remaining input if
// there is no newline.
func (c *Cursor) NearestEnd(primary string, secondary *string) (cut int, foundDelim bool) {
	rest := c.Remaining()
	ip := -1
	if primary != "" {
		ip = strings.Index(rest, primary)
	}
	is := -1
	if secondary != nil && *secondary != "" {
		is = strings.Index(rest, *secondary)
	}
	switch {
	case ip >= 0 && is >= 0:
		if ip <= is {
			return ip, true
		}
		return is, true
	case ip >= 0:
		return ip, true
	case is >= 0:
		return is, true
	}
	// Neither found: read to end-of-line, or end of input if no newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return nl, false
	}
	return len(rest), false
}

// ReadField reads one field honoring quoting and the nearest-end rule,
// consuming the primary separator afterward if consume is true (the
// secondary end delimiter is never consumed — it belongs to the outer
// scope).
func (c *Cursor) ReadField(primary string, secondary *string, consume bool) string {
	if s, ok := c.ReadQuoted(); ok {
		if consume {
			c.skipOne(primary)
		}
		return s
	}
	cut, found := c.NearestEnd(primary, secondary)
	val := c.Remaining()[:cut]
	c.Advance(cut)
	if found && consume {
		c.skipOne(primary)
	}
	return val
}

func (c *Cursor) skipOne(primary string) {
	if primary != "" && c.HasPrefix(primary) {
		c.Advance(len(primary))
	}
}
