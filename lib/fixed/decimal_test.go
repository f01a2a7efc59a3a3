package fixed

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func d(s string) Decimal { return MustParse(s) }

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"0", "0"},
		{"1", "1"},
		{"-1", "-1"},
		{"1.5", "1.5"},
		{"0.000000000000000001", "0.000000000000000001"},
		{"-0.000000000000000001", "-0.000000000000000001"},
		{"10000.000", "10000"},
		{"170134484377190040957.155711420855095752", "170134484377190040957.155711420855095752"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.out, v.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("0.0000000000000000001")
	require.ErrorIs(t, err, ErrPrecision)

	_, err = Parse("abc")
	require.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("1" + strings.Repeat("0", 58))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestRange(t *testing.T) {
	assert.Equal(t, "3138550867693340381917894711603833208051.177722232017256447", Max.String())
	assert.Equal(t, "-3138550867693340381917894711603833208051.177722232017256448", Min.String())

	assertArithmetic(t, func() { Max.Add(FromScaled(1)) })
	assertArithmetic(t, func() { Min.Sub(FromScaled(1)) })
	assertArithmetic(t, func() { Min.Neg() })
	assertArithmetic(t, func() { Max.Mul(New(2)) })
	assertArithmetic(t, func() { One.Quo(Zero) })
	assert.Equal(t, Min, Max.Neg().Sub(FromScaled(1)))
}

func assertArithmetic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "expected arithmetic panic, got %v", r)
		var ae *ArithmeticError
		require.True(t, errors.As(err, &ae))
	}()
	f()
}

func TestMulQuoRounding(t *testing.T) {
	third := One.Quo(New(3))
	assert.Equal(t, "0.333333333333333333", third.String())
	assert.Equal(t, "0.333333333333333334", One.QuoUp(New(3)).String())
	assert.Equal(t, "-0.333333333333333333", New(-1).Quo(New(3)).String())
	assert.Equal(t, "-0.333333333333333334", New(-1).QuoUp(New(3)).String())

	tiny := FromScaled(1)
	assert.True(t, tiny.Mul(tiny).IsZero())
	assert.Equal(t, tiny, tiny.MulUp(tiny))
	assert.Equal(t, "-0.000000000000000001", tiny.Neg().MulUp(tiny).String())

	assert.Equal(t, "6.25", d("2.5").Mul(d("2.5")).String())
	assert.Equal(t, "-6.25", d("-2.5").Mul(d("2.5")).String())
}

func TestCompare(t *testing.T) {
	assert.True(t, New(-2).LessThan(New(1)))
	assert.True(t, New(3).GreaterThan(New(-3)))
	assert.Equal(t, 0, d("1.0").Cmp(One))
	assert.Equal(t, New(-5), MinOf(New(-5), New(5)))
	assert.Equal(t, New(5), MaxOf(New(-5), New(5)))
	assert.Equal(t, New(7), New(-7).Abs())
	assert.Equal(t, -1, New(-7).Sign())
}

func TestJSONRoundTrip(t *testing.T) {
	type wrap struct {
		Amount Decimal `json:"amount"`
	}
	b, err := json.Marshal(wrap{Amount: d("-12.345")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"-12.345"}`, string(b))

	var w wrap
	require.NoError(t, json.Unmarshal(b, &w))
	assert.Equal(t, d("-12.345"), w.Amount)
}

func TestScan(t *testing.T) {
	var v Decimal
	require.NoError(t, v.Scan("1.25"))
	assert.Equal(t, d("1.25"), v)
	require.NoError(t, v.Scan([]byte("-3")))
	assert.Equal(t, New(-3), v)
	require.NoError(t, v.Scan(int64(4)))
	assert.Equal(t, New(4), v)
	require.Error(t, v.Scan(1.5))

	val, err := d("0.5").Value()
	require.NoError(t, err)
	assert.Equal(t, "0.5", val)
}

func genDecimal() *rapid.Generator[Decimal] {
	return rapid.Custom(func(t *rapid.T) Decimal {
		return FromScaled(rapid.Int64().Draw(t, "raw"))
	})
}

func TestArithmeticProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genDecimal().Draw(t, "a")
		b := genDecimal().Draw(t, "b")

		if !a.Add(b).Sub(b).Equal(a) {
			t.Fatalf("add/sub mismatch for %s %s", a, b)
		}
		if !a.Mul(b).Equal(b.Mul(a)) {
			t.Fatalf("mul not commutative for %s %s", a, b)
		}

		down, up := a.Mul(b), a.MulUp(b)
		diff := up.Abs().Sub(down.Abs())
		if diff.IsNegative() || diff.GreaterThan(FromScaled(1)) {
			t.Fatalf("mulUp %s not within one unit of mul %s", up, down)
		}

		if !b.IsZero() {
			q, qu := a.Quo(b), a.QuoUp(b)
			diff := qu.Abs().Sub(q.Abs())
			if diff.IsNegative() || diff.GreaterThan(FromScaled(1)) {
				t.Fatalf("quoUp %s not within one unit of quo %s", qu, q)
			}
		}

		want := new(big.Int).Add(a.Scaled(), b.Scaled())
		if a.Add(b).Scaled().Cmp(want) != 0 {
			t.Fatalf("add disagrees with big.Int")
		}
	})
}

func TestTextRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genDecimal().Draw(t, "a")
		back, err := Parse(a.String())
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(a) {
			t.Fatalf("%s parsed back as %s", a, back)
		}
	})
}
