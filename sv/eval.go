package sv

import "strings"

// Eval resolves a dotted path such as "a.b.c" by walking nested maps,
// returning the value at the leaf or (Nil(), false) if any segment is
// missing or not a map.
func Eval(v Value, dottedPath string) (Value, bool) {
	cur := v
	for _, seg := range strings.Split(dottedPath, ".") {
		m, ok := cur.MapGetAll()
		if !ok {
			return Value{}, false
		}
		cur, ok = m.get(seg)
		if !ok {
			return Value{}, false
		}
	}
	return cur, true
}

// EvalStr evaluates dottedPath and type-asserts the result as str.
func EvalStr(v Value, dottedPath string) (string, bool) {
	r, ok := Eval(v, dottedPath)
	if !ok {
		return "", false
	}
	return r.StrGet()
}

// EvalUint evaluates dottedPath and type-asserts the result as uint.
func EvalUint(v Value, dottedPath string) (uint64, bool) {
	r, ok := Eval(v, dottedPath)
	if !ok {
		return 0, false
	}
	return r.UintGet()
}

// EvalInt evaluates dottedPath and type-asserts the result as int.
func EvalInt(v Value, dottedPath string) (int64, bool) {
	r, ok := Eval(v, dottedPath)
	if !ok {
		return 0, false
	}
	return r.IntGet()
}

// EvalDouble evaluates dottedPath and type-asserts the result as double.
func EvalDouble(v Value, dottedPath string) (float64, bool) {
	r, ok := Eval(v, dottedPath)
	if !ok {
		return 0, false
	}
	return r.DoubleGet()
}
