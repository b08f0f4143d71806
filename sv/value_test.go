package sv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesInsertionOrder(t *testing.T) {
	require := require.New(t)

	v := MapVal()
	v.MapSet("z", Int(1))
	v.MapSet("a", Int(2))
	v.MapSet("m", Int(3))

	m, ok := v.MapGetAll()
	require.True(ok)
	require.Equal([]string{"z", "a", "m"}, m.Keys())
}

func TestMapSetReplacesWithoutMoving(t *testing.T) {
	require := require.New(t)

	v := MapVal()
	v.MapSet("a", Int(1))
	v.MapSet("b", Int(2))
	v.MapSet("a", Int(3))

	m, ok := v.MapGetAll()
	require.True(ok)
	require.Equal([]string{"a", "b"}, m.Keys())

	got, ok := v.MapGet("a")
	require.True(ok)
	i, ok := got.IntGet()
	require.True(ok)
	require.Equal(int64(3), i)
}

func TestEvalDottedPath(t *testing.T) {
	require := require.New(t)

	inner := MapVal()
	inner.MapSet("c", Str("leaf"))
	outer := MapVal()
	outer.MapSet("b", inner)

	got, ok := EvalStr(outer, "b.c")
	require.True(ok)
	require.Equal("leaf", got)

	_, ok = EvalStr(outer, "b.missing")
	require.False(ok)
}

func TestWireRoundTrip(t *testing.T) {
	require := require.New(t)

	list := List(Int(1), Str("two"), Double(3.5))
	m := MapVal()
	m.MapSet("list", list)
	m.MapSet("blob", Blob([]byte{1, 2, 3}))
	m.MapSet("err", Err(22, "bad arg %d", 7))

	b, err := Marshal(m)
	require.NoError(err)

	got, err := Unmarshal(b)
	require.NoError(err)

	gotList, ok := got.MapGet("list")
	require.True(ok)
	items, ok := gotList.ListGet()
	require.True(ok)
	require.Len(items, 3)

	gotErr, ok := got.MapGet("err")
	require.True(ok)
	require.True(gotErr.IsErr())
	code, msg := gotErr.ErrGet()
	require.Equal(uint32(22), code)
	require.Equal("bad arg 7", msg)
}
