package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gravwell/wplrouter/internal/wplerr"
	"github.com/gravwell/wplrouter/record"
	"github.com/gravwell/wplrouter/wpl/ast"
)

type parser struct {
	lx   *lexer
	cur  token
	peek token
	have bool // whether peek is valid
}

func newParser(src string) *parser {
	p := &parser{lx: newLexer(src)}
	p.cur = p.lx.next()
	return p
}

func (p *parser) advance() {
	if p.have {
		p.cur = p.peek
		p.have = false
		return
	}
	p.cur = p.lx.next()
}

func (p *parser) peekTok() token {
	if !p.have {
		p.peek = p.lx.next()
		p.have = true
	}
	return p.peek
}

func (p *parser) errf(format string, args ...interface{}) error {
	return wplerr.New(wplerr.Syntax, fmt.Errorf(format, args...)).
		WithPos(p.cur.pos, p.cur.line, p.cur.col, excerpt(p.lx.src, p.cur.pos))
}

func excerpt(src string, pos int) string {
	end := pos + 24
	if end > len(src) {
		end = len(src)
	}
	if pos > len(src) {
		pos = len(src)
	}
	return src[pos:end]
}

func (p *parser) expectPunct(s string) error {
	if p.cur.kind != tPunct || p.cur.text != s {
		return p.errf("expected %q", s)
	}
	p.advance()
	return nil
}

// ParseRuleSource parses a full `#[...]? rule name { statement }` source
// unit.
func ParseRuleSource(src string) (*ast.Rule, error) {
	p := newParser(src)
	r := &ast.Rule{}

	if p.cur.kind == tPunct && p.cur.text == "#" {
		anns, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}
		r.Annotations = anns
	}

	if p.cur.kind != tIdent || p.cur.text != "rule" {
		return nil, p.errf("expected 'rule'")
	}
	p.advance()
	if p.cur.kind != tIdent {
		return nil, p.errf("expected rule name")
	}
	r.Name = p.cur.text
	p.advance()
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	pipes, groups, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	r.Pipes = pipes
	r.Groups = groups
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseStatementSource parses a bare statement (no `rule NAME { }`
// wrapper) — used by the workshop CLI to test one rule body given
// directly on the command line.
func ParseStatementSource(src string) (*ast.Rule, error) {
	p := newParser(src)
	pipes, groups, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.Rule{Pipes: pipes, Groups: groups}, nil
}

func (p *parser) parseAnnotations() ([]ast.Annotation, error) {
	p.advance() // '#'
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var out []ast.Annotation
	for {
		if p.cur.kind == tPunct && p.cur.text == "]" {
			p.advance()
			break
		}
		if p.cur.kind != tIdent {
			return nil, p.errf("expected annotation name")
		}
		ann := ast.Annotation{Name: p.cur.text, Args: map[string]string{}}
		p.advance()
		if p.cur.kind == tPunct && p.cur.text == "(" {
			p.advance()
			for !(p.cur.kind == tPunct && p.cur.text == ")") {
				if p.cur.kind != tIdent {
					return nil, p.errf("expected annotation arg name")
				}
				key := p.cur.text
				p.advance()
				if err := p.expectPunct(":"); err != nil {
					return nil, err
				}
				if p.cur.kind != tString {
					return nil, p.errf("expected string value")
				}
				ann.Args[key] = unquoteString(p.cur.text)
				p.advance()
				if p.cur.kind == tPunct && p.cur.text == "," {
					p.advance()
				}
			}
			p.advance() // ')'
		}
		out = append(out, ann)
		if p.cur.kind == tPunct && p.cur.text == "," {
			p.advance()
		}
	}
	return out, nil
}

func unquoteString(tok string) string {
	s := strings.TrimPrefix(tok, `"`)
	s = strings.TrimSuffix(s, `"`)
	return s
}

// parseStatement parses an optional `|pipe|`-prefixed pipe chain followed
// by a comma-separated group list.
func (p *parser) parseStatement() ([]ast.Pipe, []ast.Group, error) {
	var pipes []ast.Pipe
	for p.cur.kind == tPunct && p.cur.text == "|" {
		pipe, err := p.parsePipeBar()
		if err != nil {
			return nil, nil, err
		}
		pipes = append(pipes, pipe)
	}
	var groups []ast.Group
	for {
		g, err := p.parseGroup()
		if err != nil {
			return nil, nil, err
		}
		groups = append(groups, g)
		if p.cur.kind == tPunct && p.cur.text == "," {
			// A trailing comma could either separate two groups or two
			// fields already consumed inside parseGroup; parseGroup only
			// consumes commas inside its own parens, so a comma here
			// always means "another group follows".
			p.advance()
			continue
		}
		break
	}
	return pipes, groups, nil
}

// parsePipeBar parses `|name|` or `|name(args)|`.
func (p *parser) parsePipeBar() (ast.Pipe, error) {
	p.advance() // '|'
	if p.cur.kind != tIdent {
		return ast.Pipe{}, p.errf("expected pipe name")
	}
	name := p.cur.text
	p.advance()
	var args []string
	if p.cur.kind == tPunct && p.cur.text == "(" {
		var err error
		args, err = p.parseArgs()
		if err != nil {
			return ast.Pipe{}, err
		}
	}
	if err := p.expectPunct("|"); err != nil {
		return ast.Pipe{}, err
	}
	return ast.Pipe{Name: name, Args: args}, nil
}

func (p *parser) parseArgs() ([]string, error) {
	p.advance() // '('
	var args []string
	for !(p.cur.kind == tPunct && p.cur.text == ")") {
		switch p.cur.kind {
		case tString:
			args = append(args, unquoteString(p.cur.text))
		default:
			args = append(args, p.cur.text)
		}
		p.advance()
		if p.cur.kind == tPunct && p.cur.text == "," {
			p.advance()
		}
	}
	p.advance() // ')'
	return args, nil
}

var groupMetaNames = map[string]ast.GroupMeta{
	"seq": ast.Seq, "order": ast.Seq,
	"opt": ast.Opt, "alt": ast.Alt, "some_of": ast.SomeOf,
}

func (p *parser) parseGroup() (ast.Group, error) {
	g := ast.Group{Meta: ast.Seq}
	if p.cur.kind == tIdent {
		if m, ok := groupMetaNames[p.cur.text]; ok {
			g.Meta = m
			p.advance()
		}
	}
	if err := p.expectPunct("("); err != nil {
		return g, err
	}
	for {
		f, err := p.parseField()
		if err != nil {
			return g, err
		}
		g.Fields = append(g.Fields, f)
		if p.cur.kind == tPunct && p.cur.text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return g, err
	}
	if p.cur.kind == tPunct && p.cur.text == "[" {
		p.advance()
		if p.cur.kind != tNumber {
			return g, p.errf("expected length number")
		}
		n, _ := strconv.Atoi(p.cur.text)
		g.BaseLen = &n
		p.advance()
		if err := p.expectPunct("]"); err != nil {
			return g, err
		}
	}
	if p.cur.kind == tPunct && p.cur.text == "<" {
		sep, err := p.parseSep(2)
		if err != nil {
			return g, err
		}
		g.BaseSep = &sep
	}
	return g, nil
}

var typeByName = buildTypeTable()

func buildTypeTable() map[string]record.DataType {
	return map[string]record.DataType{
		"chars": record.Chars, "symbol": record.Symbol, "digit": record.Digit,
		"float": record.Float, "bool": record.Bool, "time": record.Time,
		"ip": record.IP, "ipnet": record.IpNet, "port": record.Port,
		"hex": record.Hex, "base64": record.Base64, "kv": record.KV,
		"json": record.Json, "exact_json": record.ExactJson,
		"http/request": record.HttpRequest, "http/status": record.HttpStatus,
		"http/agent": record.HttpAgent, "http/method": record.HttpMethod,
		"proto-text": record.ProtoText, "domain": record.Domain,
		"email": record.Email, "url": record.Url, "id_card": record.IdCard,
		"mobile_phone": record.MobilePhone, "sn": record.SN,
		"array": record.Array, "ignore": record.Ignore, "auto": record.Auto,
		"peek_symbol": record.PeekSymbol,
	}
}

// parseField parses one field inside a group's parens: skip fields
// (`_^N`), repeated fields (`N*type`), and plain fields with optional
// name binding, content, quote hint, sub-fields, length cap, separator
// override and trailing pipes.
func (p *parser) parseField() (ast.FieldSpec, error) {
	// `_^N` skip form.
	if p.cur.kind == tIdent && p.cur.text == "_" && p.peekTok().kind == tPunct && p.peekTok().text == "^" {
		p.advance() // '_'
		p.advance() // '^'
		if p.cur.kind != tNumber {
			return ast.FieldSpec{}, p.errf("expected skip count")
		}
		n, _ := strconv.Atoi(p.cur.text)
		p.advance()
		return ast.FieldSpec{DataType: record.Ignore, Rep: ast.Repetition{Skip: true, Count: n}}, nil
	}
	// bare `_` skips one field using the group separator.
	if p.cur.kind == tIdent && p.cur.text == "_" {
		p.advance()
		return ast.FieldSpec{DataType: record.Ignore, Rep: ast.Repetition{Skip: true, Count: 1}}, nil
	}

	var rep ast.Repetition
	if p.cur.kind == tNumber && p.peekTok().kind == tPunct && p.peekTok().text == "*" {
		n, _ := strconv.Atoi(p.cur.text)
		p.advance()
		p.advance() // '*'
		rep.Count = n
	}

	var fieldName *string
	if p.cur.kind == tIdent && p.peekTok().kind == tPunct && p.peekTok().text == ":" {
		name := p.cur.text
		fieldName = &name
		p.advance()
		p.advance() // ':'
	}

	if p.cur.kind != tIdent {
		return ast.FieldSpec{}, p.errf("expected field type")
	}
	typeName := p.cur.text
	dt, ok := typeByName[strings.ToLower(typeName)]
	if !ok {
		return ast.FieldSpec{}, p.errf("unknown field type %q", typeName)
	}
	p.advance()

	fs := ast.FieldSpec{DataType: dt, FieldName: fieldName, Rep: rep}
	if rep.Count == 0 && fieldName == nil {
		// continuous repetition has no count and is only meaningful when
		// explicitly requested with a trailing '+' (see below); default
		// is "not repeated".
	}

	if p.cur.kind == tPunct && p.cur.text == "(" {
		p.advance()
		content, sub, err := p.parseFieldContent(dt)
		if err != nil {
			return fs, err
		}
		fs.ContentLiteral = content
		fs.ContentIsChars = dt == record.Chars || dt == record.Symbol
		fs.Sub = sub
		if err := p.expectPunct(")"); err != nil {
			return fs, err
		}
	}
	if p.cur.kind == tPunct && p.cur.text == "+" {
		p.advance()
		fs.Rep.Continuous = true
	}
	if p.cur.kind == tString && p.cur.text == `""` {
		fs.Quoted = true
		p.advance()
	} else if p.cur.kind == tPunct && p.cur.text == `"` {
		fs.Quoted = true
		p.advance()
	}
	if p.cur.kind == tPunct && p.cur.text == "[" {
		p.advance()
		if p.cur.kind != tNumber {
			return fs, p.errf("expected length number")
		}
		n, _ := strconv.Atoi(p.cur.text)
		fs.LenCap = &n
		p.advance()
		if err := p.expectPunct("]"); err != nil {
			return fs, err
		}
	}
	if p.cur.kind == tPunct && p.cur.text == "<" {
		sep, err := p.parseSep(3)
		if err != nil {
			return fs, err
		}
		fs.Sep = sep
	}
	for p.cur.kind == tPunct && p.cur.text == "|" {
		pp, err := p.parsePipeBarPostfix()
		if err != nil {
			return fs, err
		}
		fs.PostPipes = append(fs.PostPipes, pp)
	}
	return fs, nil
}

// parsePipeBarPostfix parses a trailing `|fun(args)` in-field pipe (no
// closing bar — it terminates at the next structural token).
func (p *parser) parsePipeBarPostfix() (ast.Pipe, error) {
	p.advance() // '|'
	if p.cur.kind != tIdent {
		return ast.Pipe{}, p.errf("expected pipe name")
	}
	name := p.cur.text
	p.advance()
	var args []string
	if p.cur.kind == tPunct && p.cur.text == "(" {
		var err error
		args, err = p.parseArgs()
		if err != nil {
			return ast.Pipe{}, err
		}
	}
	return ast.Pipe{Name: name, Args: args}, nil
}

// parseFieldContent parses the text inside a field's parens. For
// chars/symbol it is a literal pattern; for json/kv it is a sub-field
// path list (comma separated); for everything else it's an opaque
// literal carried through to the field evaluator (e.g. a separator hint
// argument).
func (p *parser) parseFieldContent(dt record.DataType) (literal string, sub []ast.FieldSpec, err error) {
	if dt == record.Json || dt == record.KV {
		for {
			if p.cur.kind != tIdent && p.cur.kind != tNumber {
				break
			}
			path := p.cur.text
			p.advance()
			sub = append(sub, ast.FieldSpec{DataType: record.Auto, ContentLiteral: path})
			if p.cur.kind == tPunct && p.cur.text == "," {
				p.advance()
				continue
			}
			break
		}
		return "", sub, nil
	}
	if p.cur.kind == tString {
		literal = unquoteString(p.cur.text)
		p.advance()
		return literal, nil, nil
	}
	if p.cur.kind == tIdent {
		literal = p.cur.text
		p.advance()
		return literal, nil, nil
	}
	return "", nil, nil
}

// parseSep parses `<primary>`, `<[secondary]>`, or `<primary[secondary]>`.
func (p *parser) parseSep(priority int) (ast.WplSep, error) {
	p.advance() // '<'
	sep := ast.WplSep{Priority: priority, Consume: true}
	if p.cur.kind == tIdent || p.cur.kind == tString || (p.cur.kind == tPunct && p.cur.text != "[" && p.cur.text != ">") {
		sep.Value = p.readSepLiteral()
	}
	if p.cur.kind == tPunct && p.cur.text == "[" {
		p.advance()
		secondary := p.readSepLiteral()
		sep.SecondaryEnd = &secondary
		if err := p.expectPunct("]"); err != nil {
			return sep, err
		}
	}
	if err := p.expectPunct(">"); err != nil {
		return sep, err
	}
	if sep.Value == `\0` {
		sep.Kind = ast.SepEnd
	}
	return sep, nil
}

// readSepLiteral greedily consumes tokens up to the next `[`, `]`, or `>`
// and concatenates their raw text, so punctuation separators like `,` or
// `: ` can be written without quoting.
func (p *parser) readSepLiteral() string {
	var b strings.Builder
	for {
		if p.cur.kind == tEOF {
			break
		}
		if p.cur.kind == tPunct && (p.cur.text == "[" || p.cur.text == "]" || p.cur.text == ">") {
			break
		}
		if p.cur.kind == tString {
			b.WriteString(unquoteString(p.cur.text))
		} else {
			b.WriteString(p.cur.text)
		}
		p.advance()
	}
	return b.String()
}
