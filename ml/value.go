package ml

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind 单元格类型
type Kind int

const (
	KindMissing Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Value 表的单元格，零值表示缺失
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

func Missing() Value { return Value{} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Composite(raw string) Value { return Value{kind: KindComposite, s: raw} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNumber 是否为整数或浮点数
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Float64 返回整数或浮点单元格的数值
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Int64 返回整数单元格的值
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString, KindComposite:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// IsInf 是否为 +Inf 或 -Inf
func (v Value) IsInf() bool {
	return v.kind == KindFloat && math.IsInf(v.f, 0)
}

// ToNumeric 宽松地转为数值。数字原样保留，数字字符串被解析，布尔值转为0/1，
// 其余（包括 NaN）置为缺失
func (v Value) ToNumeric() Value {
	switch v.kind {
	case KindInt:
		return v
	case KindFloat:
		if math.IsNaN(v.f) {
			return Missing()
		}
		return v
	case KindBool:
		if v.b {
			return Int(1)
		}
		return Int(0)
	case KindString:
		text := strings.TrimSpace(v.s)
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i)
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			var numErr *strconv.NumError
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				return Missing()
			}
		}
		if math.IsNaN(f) {
			return Missing()
		}
		return Float(f)
	default:
		return Missing()
	}
}

// FromJSON 把 json.Decoder.UseNumber 解码出的值转为单元格
func FromJSON(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Missing()
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		// out-of-range literals such as 1e400 decode to ±Inf
		f, _ := strconv.ParseFloat(x.String(), 64)
		return Float(f)
	case float64:
		return Float(x)
	case string:
		return String(x)
	case bool:
		return Bool(x)
	default:
		payload, err := json.Marshal(x)
		if err != nil {
			return Composite("")
		}
		return Composite(string(payload))
	}
}
