package sv

import (
	"fmt"
	"io"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var mpHandle codec.MsgpackHandle

// fromWire expects string-keyed maps, strings as string and blobs as
// []byte, so the handle decodes maps as map[string]interface{} and keeps
// the str/bin distinction on the wire.
func init() {
	mpHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))
	mpHandle.RawToString = true
	mpHandle.WriteExt = true
}

// Encode writes v to w using the self-describing wire encoding. Maps are
// encoded as an ordered list of [key, value] pairs rather than a bare
// msgpack map, so that insertion order survives the round trip.
func Encode(w io.Writer, v Value) error {
	return codec.NewEncoder(w, &mpHandle).Encode(toWire(v))
}

// Decode reads one Value from r using the wire encoding produced by Encode.
func Decode(r io.Reader) (Value, error) {
	var wire interface{}
	if err := codec.NewDecoder(r, &mpHandle).Decode(&wire); err != nil {
		return Value{}, err
	}
	return fromWire(wire)
}

// Marshal and Unmarshal mirror Encode/Decode over a byte slice, used by the
// transport framing layer.
func Marshal(v Value) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &mpHandle)
	if err := enc.Encode(toWire(v)); err != nil {
		return nil, err
	}
	return buf, nil
}

func Unmarshal(b []byte) (Value, error) {
	var wire interface{}
	dec := codec.NewDecoderBytes(b, &mpHandle)
	if err := dec.Decode(&wire); err != nil {
		return Value{}, err
	}
	return fromWire(wire)
}

// wire tags, kept distinct from Kind's numbering so the two can evolve
// independently.
const (
	wireNil = iota
	wireInt
	wireUint
	wireDouble
	wireStr
	wireBlob
	wireList
	wireMap
	wireErr
)

func toWire(v Value) map[string]interface{} {
	switch v.kind {
	case KindNil:
		return map[string]interface{}{"k": wireNil}
	case KindInt:
		return map[string]interface{}{"k": wireInt, "v": v.i}
	case KindUint:
		return map[string]interface{}{"k": wireUint, "v": v.u}
	case KindDouble:
		return map[string]interface{}{"k": wireDouble, "v": v.d}
	case KindStr:
		return map[string]interface{}{"k": wireStr, "v": v.s}
	case KindBlob:
		return map[string]interface{}{"k": wireBlob, "v": v.blob}
	case KindList:
		items := make([]interface{}, len(v.list))
		for i, it := range v.list {
			items[i] = toWire(it)
		}
		return map[string]interface{}{"k": wireList, "v": items}
	case KindMap:
		pairs := make([]interface{}, 0, v.m.Len())
		v.m.Range(func(key string, val Value) bool {
			pairs = append(pairs, []interface{}{key, toWire(val)})
			return true
		})
		return map[string]interface{}{"k": wireMap, "v": pairs}
	case KindErr:
		return map[string]interface{}{"k": wireErr, "c": v.errCode, "m": v.errMsg}
	default:
		return map[string]interface{}{"k": wireNil}
	}
}

func fromWire(x interface{}) (Value, error) {
	m, ok := x.(map[string]interface{})
	if !ok {
		return Value{}, fmt.Errorf("sv: malformed wire value: %T", x)
	}
	kind, err := wireKind(m["k"])
	if err != nil {
		return Value{}, err
	}

	switch kind {
	case wireNil:
		return Nil(), nil
	case wireInt:
		return Int(asInt64(m["v"])), nil
	case wireUint:
		return Uint(asUint64(m["v"])), nil
	case wireDouble:
		return Double(asFloat64(m["v"])), nil
	case wireStr:
		s, _ := m["v"].(string)
		return Str(s), nil
	case wireBlob:
		b, _ := m["v"].([]byte)
		return Blob(b), nil
	case wireList:
		raw, _ := m["v"].([]interface{})
		out := List()
		for _, item := range raw {
			iv, err := fromWire(item)
			if err != nil {
				return Value{}, err
			}
			out.ListAdd(iv)
		}
		return out, nil
	case wireMap:
		raw, _ := m["v"].([]interface{})
		out := MapVal()
		for _, pairRaw := range raw {
			pair, ok := pairRaw.([]interface{})
			if !ok || len(pair) != 2 {
				return Value{}, fmt.Errorf("sv: malformed wire map entry")
			}
			key, _ := pair[0].(string)
			val, err := fromWire(pair[1])
			if err != nil {
				return Value{}, err
			}
			out.MapSet(key, val)
		}
		return out, nil
	case wireErr:
		return Value{kind: KindErr, errCode: asUint32(m["c"]), errMsg: fmt.Sprint(m["m"])}, nil
	default:
		return Value{}, fmt.Errorf("sv: unknown wire kind %d", kind)
	}
}

func wireKind(x interface{}) (int, error) {
	switch n := x.(type) {
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("sv: missing or malformed wire kind tag")
	}
}

func asInt64(x interface{}) int64 {
	switch n := x.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func asUint64(x interface{}) uint64 {
	switch n := x.(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

func asUint32(x interface{}) uint32 {
	return uint32(asUint64(x))
}

func asFloat64(x interface{}) float64 {
	switch n := x.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}
