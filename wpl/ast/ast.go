// Package ast defines the compiled WPL rule tree: Rule, Group, FieldSpec
// and WplSep.
package ast

import "github.com/gravwell/wplrouter/record"

// GroupMeta is the group combinator kind.
type GroupMeta uint8

const (
	Seq GroupMeta = iota
	Opt
	Alt
	SomeOf
)

func (m GroupMeta) String() string {
	switch m {
	case Opt:
		return "opt"
	case Alt:
		return "alt"
	case SomeOf:
		return "some_of"
	default:
		return "seq"
	}
}

// SepKind distinguishes a literal separator string from the `\0`
// read-to-line-end marker.
type SepKind uint8

const (
	SepLiteral SepKind = iota
	SepEnd
)

// WplSep is the separator policy attached to a field, a group, or
// inherited from the enclosing rule. A field-level separator (priority 3)
// overrides a group-level one (2), which overrides an inherited one (1).
type WplSep struct {
	Priority     int
	Kind         SepKind
	Value        string
	SecondaryEnd *string
	Consume      bool
}

// OverrideWith replaces fields of s with ups's fields when ups carries a
// strictly higher priority.
func (s WplSep) OverrideWith(ups WplSep) WplSep {
	if ups.Priority > s.Priority {
		return ups
	}
	return s
}

// Repetition describes `_^N` (skip N using the group separator) or
// `N*type` (consume up to N matches of type), and the unbounded
// "continuous" form with no explicit count.
type Repetition struct {
	Skip       bool // `_^N` skip form
	Count      int  // 0 means "continuous" (repeat until failure)
	Continuous bool
}

// FieldSpec is one field inside a Group.
type FieldSpec struct {
	MetaName string // binding name used by `|fun(args)` pipes / copy_raw
	DataType record.DataType
	ArrayOf  record.DataType // meaningful when DataType == record.Array

	// Content pattern: symbol(x) or chars(pattern); empty means "any".
	ContentLiteral string
	ContentIsChars bool
	Quoted         bool // trailing `"` hint: field value is quote-wrapped

	FieldName *string // optional explicit field-name binding ("name:" form)
	Sub       []FieldSpec
	LenCap    *int

	Sep WplSep
	Rep Repetition

	PrePipes  []Pipe
	PostPipes []Pipe
}

// Pipe is either a text-transform stage (decode/base64, unquote/unescape,
// plg_pipe/<name>) or an in-field predicate/transform (`|fun(args)`).
type Pipe struct {
	Name string
	Args []string
}

// Group is one `meta(field, field, ...)  [len]  sep` statement.
type Group struct {
	Meta    GroupMeta
	Fields  []FieldSpec
	BaseSep *WplSep
	BaseLen *int
}

// Annotation is a `#[tag(k:"v"), copy_raw(name:"x")]` prefix entry.
type Annotation struct {
	Name string
	Args map[string]string
}

// Rule is a named, compiled, reusable WPL rule.
type Rule struct {
	Name        string
	Annotations []Annotation
	Pipes       []Pipe
	Groups      []Group
}

// CopyRawField returns the field name requested by a `copy_raw` annotation,
// if one is present.
func (r *Rule) CopyRawField() (string, bool) {
	for _, a := range r.Annotations {
		if a.Name == "copy_raw" {
			if n, ok := a.Args["name"]; ok {
				return n, true
			}
		}
	}
	return "", false
}
