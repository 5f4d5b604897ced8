// Package record implements the parsed-record data model: DataType, Value,
// DataField and DataRecord, plus the process-wide field-name intern table.
package record

import "fmt"

// DataType is the closed set of field types a compiled WPL rule can emit.
type DataType uint8

const (
	Chars DataType = iota
	Symbol
	Digit
	Float
	Bool
	Time
	TimeCLF
	TimeISO
	TimeRFC3339
	TimeRFC2822
	TimeTIMESTAMP
	IP
	IpNet
	Port
	Hex
	Base64
	KV
	Json
	ExactJson
	HttpRequest
	HttpStatus
	HttpAgent
	HttpMethod
	ProtoText
	Domain
	Email
	Url
	IdCard
	MobilePhone
	SN
	Array
	Ignore
	Auto
	PeekSymbol
)

var typeNames = map[DataType]string{
	Chars:         "chars",
	Symbol:        "symbol",
	Digit:         "digit",
	Float:         "float",
	Bool:          "bool",
	Time:          "time",
	TimeCLF:       "time/clf",
	TimeISO:       "time/iso",
	TimeRFC3339:   "time/rfc3339",
	TimeRFC2822:   "time/rfc2822",
	TimeTIMESTAMP: "time/timestamp",
	IP:            "ip",
	IpNet:         "ipnet",
	Port:          "port",
	Hex:           "hex",
	Base64:        "base64",
	KV:            "kv",
	Json:          "json",
	ExactJson:     "exact_json",
	HttpRequest:   "http/request",
	HttpStatus:    "http/status",
	HttpAgent:     "http/agent",
	HttpMethod:    "http/method",
	ProtoText:     "proto-text",
	Domain:        "domain",
	Email:         "email",
	Url:           "url",
	IdCard:        "id_card",
	MobilePhone:   "mobile_phone",
	SN:            "sn",
	Array:         "array",
	Ignore:        "ignore",
	Auto:          "auto",
	PeekSymbol:    "peek_symbol",
}

func (dt DataType) String() string {
	if s, ok := typeNames[dt]; ok {
		return s
	}
	return fmt.Sprintf("datatype(%d)", uint8(dt))
}

// ArrayType pairs the Array DataType with its inner element type, mirroring
// the WPL grammar's `N*type` / `array(type)` inner-type annotation.
type ArrayType struct {
	Inner DataType
}
