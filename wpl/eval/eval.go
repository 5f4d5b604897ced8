// Package eval executes a compiled wpl/ast.Rule against one raw event,
// producing a record.DataRecord: ast builds the tree, eval walks it.
package eval

import (
	"fmt"

	"github.com/gravwell/wplrouter/internal/wplerr"
	"github.com/gravwell/wplrouter/record"
	"github.com/gravwell/wplrouter/wpl/ast"
	"github.com/gravwell/wplrouter/wpl/cursor"
	"github.com/gravwell/wplrouter/wpl/fields"
	"github.com/gravwell/wplrouter/wpl/pipes"
)

// state carries the cursor and in-progress record through one rule
// execution. It is not safe for concurrent use; callers run one state per
// goroutine per event.
type state struct {
	cur *cursor.Cursor
	rec *record.DataRecord
}

// Execute runs rule against input and returns the resulting record, or a
// structured wplerr.Error (Kind Data) describing the first unrecoverable
// mismatch.
func Execute(rule *ast.Rule, input string) (*record.DataRecord, error) {
	text := input
	for _, p := range rule.Pipes {
		out, err := pipes.Lookup(p.Name)(text, p.Args)
		if err != nil {
			return nil, wplerr.New(wplerr.Data, fmt.Errorf("rule pipe %s: %w", p.Name, err))
		}
		text = out
	}

	st := &state{cur: cursor.New(text), rec: record.NewRecord(16)}
	var inherited ast.WplSep // priority 0: nothing yet set at rule scope

	for i := range rule.Groups {
		if err := st.execGroup(&rule.Groups[i], inherited); err != nil {
			return nil, err
		}
	}

	if name, ok := rule.CopyRawField(); ok {
		st.rec.Add(record.Intern(name), record.Chars, record.NewChars(input))
	}
	return st.rec, nil
}

func (st *state) execGroup(g *ast.Group, inherited ast.WplSep) error {
	sep := inherited
	if g.BaseSep != nil {
		sep = sep.OverrideWith(*g.BaseSep)
	}
	switch g.Meta {
	case ast.Seq:
		return st.execSeq(g.Fields, sep)
	case ast.Opt:
		return st.execOpt(g.Fields, sep)
	case ast.Alt:
		return st.execAlt(g.Fields, sep)
	case ast.SomeOf:
		return st.execSomeOf(g.Fields, sep)
	default:
		return st.execSeq(g.Fields, sep)
	}
}

func (st *state) execSeq(fields []ast.FieldSpec, sep ast.WplSep) error {
	for i := range fields {
		if err := st.execField(&fields[i], sep); err != nil {
			return err
		}
	}
	return nil
}

// execOpt tries the field list as a unit; on any failure it rolls back
// both cursor position and any fields already appended, and reports
// success regardless — an Opt group that doesn't match simply contributes
// nothing.
func (st *state) execOpt(fs []ast.FieldSpec, sep ast.WplSep) error {
	savePos := st.cur.Pos()
	saveLen := len(st.rec.Fields)
	if err := st.execSeq(fs, sep); err != nil {
		st.cur.SetPos(savePos)
		st.rec.Fields = st.rec.Fields[:saveLen]
	}
	return nil
}

// execAlt tries each field as an independent alternative and commits to
// the first one that matches; no alternative matching is a hard failure.
func (st *state) execAlt(fs []ast.FieldSpec, sep ast.WplSep) error {
	savePos := st.cur.Pos()
	saveLen := len(st.rec.Fields)
	var lastErr error
	for i := range fs {
		if err := st.execField(&fs[i], sep); err == nil {
			return nil
		} else {
			lastErr = err
		}
		st.cur.SetPos(savePos)
		st.rec.Fields = st.rec.Fields[:saveLen]
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty alt group")
	}
	return wplerr.New(wplerr.Data, fmt.Errorf("no alternative matched: %w", lastErr)).
		WithPos(st.cur.Pos(), 0, 0, excerptAt(st.cur))
}

// execSomeOf repeatedly scans the field list left to right, consuming
// whichever fields still match, until a full pass makes no progress.
// Declaration order is the deterministic tie-break among fields that
// could both match at the current position.
func (st *state) execSomeOf(fs []ast.FieldSpec, sep ast.WplSep) error {
	matched := make([]bool, len(fs))
	for {
		progressed := false
		for i := range fs {
			if matched[i] && !fs[i].Rep.Continuous {
				continue
			}
			pos := st.cur.Pos()
			saveLen := len(st.rec.Fields)
			if err := st.execField(&fs[i], sep); err != nil {
				st.cur.SetPos(pos)
				st.rec.Fields = st.rec.Fields[:saveLen]
				continue
			}
			matched[i] = true
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return nil
}

func excerptAt(c *cursor.Cursor) string {
	rest := c.Remaining()
	if len(rest) > 24 {
		rest = rest[:24]
	}
	return rest
}

// execField dispatches skip/repeat/plain forms before handing a single
// match attempt to execOne.
func (st *state) execField(f *ast.FieldSpec, sep ast.WplSep) error {
	switch {
	case f.Rep.Skip:
		for i := 0; i < f.Rep.Count; i++ {
			effSep := sep.OverrideWith(f.Sep)
			st.cur.ReadField(effSep.Value, effSep.SecondaryEnd, effSep.Consume)
		}
		return nil
	case f.Rep.Continuous:
		for {
			pos := st.cur.Pos()
			saveLen := len(st.rec.Fields)
			if err := st.execOne(f, sep); err != nil {
				st.cur.SetPos(pos)
				st.rec.Fields = st.rec.Fields[:saveLen]
				return nil
			}
			if st.cur.Pos() == pos {
				return nil // no progress: avoid an infinite loop on a zero-width match
			}
		}
	case f.Rep.Count > 0:
		// Up to Count matches: the first failing attempt is rolled back
		// and ends the repetition, leaving the rest of the input in place.
		for i := 0; i < f.Rep.Count; i++ {
			pos := st.cur.Pos()
			saveLen := len(st.rec.Fields)
			if err := st.execOne(f, sep); err != nil {
				st.cur.SetPos(pos)
				st.rec.Fields = st.rec.Fields[:saveLen]
				return nil
			}
		}
		return nil
	default:
		return st.execOne(f, sep)
	}
}

// execOne reads and decodes one field occurrence, appending it to the
// record on success.
func (st *state) execOne(f *ast.FieldSpec, sep ast.WplSep) error {
	effSep := sep.OverrideWith(f.Sep)
	var raw string

	switch {
	case f.LenCap != nil:
		rem := st.cur.Remaining()
		n := *f.LenCap
		if n > len(rem) {
			return st.dataErr("field of length %d", n)
		}
		raw = rem[:n]
		st.cur.Advance(n)
	case f.Quoted:
		s, ok := st.cur.ReadQuoted()
		if !ok {
			return st.dataErr("quoted %s", f.DataType)
		}
		raw = s
		if effSep.Consume && effSep.Value != "" && st.cur.HasPrefix(effSep.Value) {
			st.cur.Advance(len(effSep.Value))
		}
	default:
		if st.cur.AtEnd() {
			return st.dataErr("%s: end of input", f.DataType)
		}
		raw = st.cur.ReadField(effSep.Value, effSep.SecondaryEnd, effSep.Consume)
	}

	for _, p := range f.PrePipes {
		out, err := pipes.Lookup(p.Name)(raw, p.Args)
		if err != nil {
			return st.dataErr("pipe %s: %v", p.Name, err)
		}
		raw = out
	}
	for _, p := range f.PostPipes {
		out, err := pipes.Lookup(p.Name)(raw, p.Args)
		if err != nil {
			return st.dataErr("pipe %s: %v", p.Name, err)
		}
		raw = out
	}

	if f.ContentIsChars && f.ContentLiteral != "" && raw != f.ContentLiteral {
		return st.dataErr("expected literal %q, got %q", f.ContentLiteral, raw)
	}

	val, dt, err := decode(f, raw, st.rec)
	if err != nil {
		return st.dataErr("%s", err)
	}

	name := fieldName(f)
	st.rec.Add(name, dt, val)
	return nil
}

func (st *state) dataErr(format string, args ...interface{}) error {
	return wplerr.New(wplerr.Data, fmt.Errorf(format, args...)).
		WithPos(st.cur.Pos(), 0, 0, excerptAt(st.cur))
}

func fieldName(f *ast.FieldSpec) record.Name {
	if f.FieldName != nil {
		return record.Intern(*f.FieldName)
	}
	return record.Intern(f.DataType.String())
}

// decode converts a captured substring into a typed Value per f.DataType,
// per the field-atom parsers in wpl/fields. json fields additionally
// populate Value.Sub from f.Sub's path list; kv fields populate it with
// every decoded pair, and f.Sub does not narrow that set.
func decode(f *ast.FieldSpec, raw string, rec *record.DataRecord) (record.Value, record.DataType, error) {
	switch f.DataType {
	case record.Chars, record.Symbol, record.ProtoText, record.HttpAgent:
		return record.NewChars(raw), f.DataType, nil
	case record.Ignore:
		return record.Value{Kind: record.Ignore}, record.Ignore, nil
	case record.Auto:
		return autoDecode(raw), record.Auto, nil
	case record.Digit:
		n, ok := fields.ParseDigit(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a digit: %q", raw)
		}
		return record.NewDigit(n), record.Digit, nil
	case record.Float:
		fv, ok := fields.ParseFloat(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a float: %q", raw)
		}
		return record.NewFloat(fv), record.Float, nil
	case record.Bool:
		b, ok := fields.ParseBool(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a bool: %q", raw)
		}
		return record.NewBool(b), record.Bool, nil
	case record.Time:
		t, dt, ok := fields.ParseTime(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a time: %q", raw)
		}
		return record.NewTime(t, dt), dt, nil
	case record.IP:
		a, ok := fields.ParseIP(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an ip: %q", raw)
		}
		return record.NewIP(a), record.IP, nil
	case record.IpNet:
		p, ok := fields.ParseIPNet(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a cidr: %q", raw)
		}
		return record.NewIPNet(p), record.IpNet, nil
	case record.Port:
		n, ok := fields.ParseDigit(raw)
		if !ok || n < 0 || n > 65535 {
			return record.Value{}, 0, fmt.Errorf("not a port: %q", raw)
		}
		return record.NewDigit(n), record.Port, nil
	case record.Hex:
		b, err := fields.DecodeHex(raw)
		if err != nil {
			return record.Value{}, 0, err
		}
		return record.Value{Kind: record.Hex, Bytes: b, Str: raw}, record.Hex, nil
	case record.Base64:
		b, err := fields.DecodeBase64(raw)
		if err != nil {
			return record.Value{}, 0, err
		}
		return record.Value{Kind: record.Base64, Bytes: b, Str: raw}, record.Base64, nil
	case record.Json, record.ExactJson:
		return decodeJSONField(f, raw)
	case record.KV:
		return decodeKVField(f, raw)
	case record.HttpRequest:
		req, ok := fields.ParseHttpRequest(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an http request line: %q", raw)
		}
		sub := []record.DataField{
			{Name: record.Intern("method"), Type: record.HttpMethod, Value: record.NewChars(req.Method)},
			{Name: record.Intern("path"), Type: record.Chars, Value: record.NewChars(req.Path)},
			{Name: record.Intern("proto"), Type: record.Chars, Value: record.NewChars(req.Proto)},
		}
		return record.Value{Kind: record.HttpRequest, Str: raw, Sub: sub}, record.HttpRequest, nil
	case record.HttpStatus:
		n, ok := fields.ParseHttpStatus(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an http status: %q", raw)
		}
		return record.NewDigit(int64(n)), record.HttpStatus, nil
	case record.HttpMethod:
		m, ok := fields.ParseHttpMethod(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an http method: %q", raw)
		}
		return record.NewChars(m), record.HttpMethod, nil
	case record.Domain:
		d, ok := fields.ParseDomain(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a domain: %q", raw)
		}
		return record.NewChars(d), record.Domain, nil
	case record.Email:
		e, ok := fields.ParseEmail(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an email: %q", raw)
		}
		return record.NewChars(e), record.Email, nil
	case record.Url:
		u, ok := fields.ParseURL(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a url: %q", raw)
		}
		return record.NewChars(u.String()), record.Url, nil
	case record.IdCard:
		s, ok := fields.ParseIdCard(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not an id card: %q", raw)
		}
		return record.NewChars(s), record.IdCard, nil
	case record.MobilePhone:
		s, ok := fields.ParseMobilePhone(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a mobile phone: %q", raw)
		}
		return record.NewChars(s), record.MobilePhone, nil
	case record.SN:
		s, ok := fields.ParseSN(raw)
		if !ok {
			return record.Value{}, 0, fmt.Errorf("not a serial number: %q", raw)
		}
		return record.NewChars(s), record.SN, nil
	case record.PeekSymbol:
		return record.NewSymbol(raw), record.PeekSymbol, nil
	default:
		return record.NewChars(raw), f.DataType, nil
	}
}

// autoDecode implements the `auto` field type: try numeric, then bool,
// then time, falling back to chars. Used by json/kv sub-field values,
// whose leaf type isn't declared in the rule text.
func autoDecode(raw string) record.Value {
	if n, ok := fields.ParseDigit(raw); ok {
		return record.NewDigit(n)
	}
	if fv, ok := fields.ParseFloat(raw); ok {
		return record.NewFloat(fv)
	}
	if b, ok := fields.ParseBool(raw); ok {
		return record.NewBool(b)
	}
	if t, dt, ok := fields.ParseTime(raw); ok {
		return record.NewTime(t, dt)
	}
	return record.NewChars(raw)
}

func decodeJSONField(f *ast.FieldSpec, raw string) (record.Value, record.DataType, error) {
	doc, err := fields.DecodeJSON(raw)
	if err != nil {
		return record.Value{}, 0, fmt.Errorf("invalid json: %w", err)
	}
	var sub []record.DataField
	for _, s := range f.Sub {
		v, ok := fields.LookupPath(doc, s.ContentLiteral)
		if !ok {
			continue
		}
		sub = append(sub, record.DataField{
			Name:  record.Intern(s.ContentLiteral),
			Type:  record.Auto,
			Value: autoDecode(fmt.Sprint(v)),
		})
	}
	return record.Value{Kind: f.DataType, Str: raw, Sub: sub}, f.DataType, nil
}

func decodeKVField(f *ast.FieldSpec, raw string) (record.Value, record.DataType, error) {
	pairs := fields.ParseKV(raw, "=", "")
	sub := make([]record.DataField, 0, len(pairs))
	for _, p := range pairs {
		sub = append(sub, record.DataField{
			Name:  record.Intern(p.Key),
			Type:  record.Auto,
			Value: autoDecode(p.Value),
		})
	}
	return record.Value{Kind: record.KV, Str: raw, Sub: sub}, record.KV, nil
}
