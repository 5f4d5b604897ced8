package record

import (
	"fmt"
	"math"
	"net/netip"
	"time"
)

// floatTolerance is the absolute tolerance used for Float/Digit value
// equality, per the invariant that float parsing is never bit-exact when
// round-tripped through text.
const floatTolerance = 1e-4

// Value mirrors DataType's variants. Exactly one of the typed fields is
// meaningful for a given Kind; Str carries every textual representation
// (Chars, Symbol, Json, KV raw text, http/* subfields, domain/email/url,
// hex/base64 canonical text, etc.) so most DataTypes only need Str.
type Value struct {
	Kind DataType

	Str   string
	Int   int64
	Flt   float64
	Bln   bool
	Tm    time.Time
	Addr  netip.Addr
	Net   netip.Prefix
	Bytes []byte
	Sub   []DataField // nested fields for json/kv decompositions
	Arr   []Value     // Array elements
}

func NewChars(s string) Value  { return Value{Kind: Chars, Str: s} }
func NewSymbol(s string) Value { return Value{Kind: Symbol, Str: s} }
func NewDigit(i int64) Value   { return Value{Kind: Digit, Int: i} }
func NewFloat(f float64) Value { return Value{Kind: Float, Flt: f} }
func NewBool(b bool) Value     { return Value{Kind: Bool, Bln: b} }
func NewTime(t time.Time, kind DataType) Value {
	if kind == 0 {
		kind = Time
	}
	return Value{Kind: kind, Tm: t}
}
func NewIP(a netip.Addr) Value         { return Value{Kind: IP, Addr: a} }
func NewIPNet(p netip.Prefix) Value    { return Value{Kind: IpNet, Net: p} }
func NewArray(inner DataType, v []Value) Value {
	return Value{Kind: Array, Arr: v, Sub: []DataField{{Name: internTypeTag, Value: Value{Kind: inner}}}}
}

// internTypeTag names the synthetic sub-field used to remember an Array's
// inner element type without growing the Value struct further.
var internTypeTag = MustIntern("__inner_type__")

// Equal implements per-kind equality: float comparison within a small
// tolerance, bit-pattern comparison for IP/IpNet, and exact comparison
// everywhere else.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Float, Digit:
		a, b := v.asFloat(), o.asFloat()
		return math.Abs(a-b) <= floatTolerance
	case IP:
		return v.Addr == o.Addr
	case IpNet:
		return v.Net == o.Net
	case Time, TimeCLF, TimeISO, TimeRFC3339, TimeRFC2822, TimeTIMESTAMP:
		// naive-datetime comparison: ignore monotonic reading and location,
		// compare wall-clock components only.
		a, b := v.Tm, o.Tm
		return time.Date(a.Year(), a.Month(), a.Day(), a.Hour(), a.Minute(), a.Second(), a.Nanosecond(), time.UTC).
			Equal(time.Date(b.Year(), b.Month(), b.Day(), b.Hour(), b.Minute(), b.Second(), b.Nanosecond(), time.UTC))
	case Bool:
		return v.Bln == o.Bln
	case Array:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	default:
		return v.Str == o.Str
	}
}

func (v Value) asFloat() float64 {
	if v.Kind == Digit {
		return float64(v.Int)
	}
	return v.Flt
}

// Interface returns a loosely-typed Go value suitable for filter evaluation
// or formatter plugins.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case Digit:
		return v.Int
	case Float:
		return v.Flt
	case Bool:
		return v.Bln
	case IP:
		return v.Addr
	case IpNet:
		return v.Net
	case Time, TimeCLF, TimeISO, TimeRFC3339, TimeRFC2822, TimeTIMESTAMP:
		return v.Tm
	case Array:
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = e.Interface()
		}
		return out
	default:
		return v.Str
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Digit:
		return fmt.Sprintf("%d", v.Int)
	case Float:
		return fmt.Sprintf("%g", v.Flt)
	case Bool:
		return fmt.Sprintf("%t", v.Bln)
	case IP:
		return v.Addr.String()
	case IpNet:
		return v.Net.String()
	case Time, TimeCLF, TimeISO, TimeRFC3339, TimeRFC2822, TimeTIMESTAMP:
		return v.Tm.Format("2006-01-02 15:04:05")
	default:
		return v.Str
	}
}
