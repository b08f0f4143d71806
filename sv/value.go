// Package sv implements the structured-value (SV) model: a self-describing
// tagged value tree used for every control-plane argument, result, and
// diagnostic exchanged with the switch.
package sv

import "fmt"

// Kind tags the active alternative held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindUint
	KindDouble
	KindStr
	KindBlob
	KindList
	KindMap
	KindErr
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDouble:
		return "double"
	case KindStr:
		return "str"
	case KindBlob:
		return "blob"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindErr:
		return "err"
	default:
		return "unknown"
	}
}

// Value is a tagged union over nil, int, uint, double, str, blob, list, map
// and err. The zero Value is Nil().
type Value struct {
	kind Kind

	i    int64
	u    uint64
	d    float64
	s    string
	blob []byte
	list []Value
	m    *Map

	errCode uint32
	errMsg  string
}

func Nil() Value { return Value{kind: KindNil} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }

func Double(d float64) Value { return Value{kind: KindDouble, d: d} }

func Str(s string) Value { return Value{kind: KindStr, s: s} }

func Blob(b []byte) Value { return Value{kind: KindBlob, blob: b} }

// List returns a new list Value seeded with items.
func List(items ...Value) Value {
	l := make([]Value, len(items))
	copy(l, items)
	return Value{kind: KindList, list: l}
}

// MapVal returns a new, empty ordered map Value.
func MapVal() Value {
	return Value{kind: KindMap, m: newMap()}
}

// Err builds an err Value from an error code and a printf-style message.
func Err(code uint32, format string, args ...interface{}) Value {
	return Value{kind: KindErr, errCode: code, errMsg: fmt.Sprintf(format, args...)}
}

// Errno builds an err Value carrying only an error code, no message.
func Errno(code uint32) Value {
	return Value{kind: KindErr, errCode: code}
}

func (v Value) Type() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) IsErr() bool { return v.kind == KindErr }

// IntGet returns the int payload and whether v is actually a KindInt.
func (v Value) IntGet() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) UintGet() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.u, true
}

func (v Value) DoubleGet() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return v.d, true
}

func (v Value) StrGet() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

func (v Value) BlobGet() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.blob, true
}

func (v Value) ListGet() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) MapGetAll() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// ErrGet returns the error code and message, valid only if IsErr().
func (v Value) ErrGet() (code uint32, msg string) {
	return v.errCode, v.errMsg
}

// ListAdd appends item to a list Value in place; panics if v is not a list.
// The appended value is considered owned by the list thereafter.
func (v *Value) ListAdd(item Value) {
	if v.kind != KindList {
		panic("sv: ListAdd on non-list Value")
	}
	v.list = append(v.list, item)
}

// MapSet sets key to value in a map Value in place, replacing any existing
// entry for key while preserving its original position. Panics if v is not
// a map.
func (v *Value) MapSet(key string, value Value) {
	if v.kind != KindMap {
		panic("sv: MapSet on non-map Value")
	}
	v.m.set(key, value)
}

// MapGet looks up key in a map Value.
func (v Value) MapGet(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	return v.m.get(key)
}
