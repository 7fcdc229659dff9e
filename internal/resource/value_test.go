package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualPrimitives(t *testing.T) {
	assert.True(t, Equal(IntValue(1), IntValue(1)))
	assert.False(t, Equal(IntValue(1), IntValue(2)))
	assert.True(t, Equal(StringValue("a"), StringValue("a")))
	assert.True(t, Equal(NoneValue{}, NoneValue{}))
	assert.False(t, Equal(IntValue(0), NoneValue{}))
}

func TestEqualComposite(t *testing.T) {
	a := ListValue{IntValue(1), StringValue("x")}
	b := ListValue{IntValue(1), StringValue("x")}
	c := ListValue{IntValue(1), StringValue("y")}
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))

	m1 := MapValue{"a": IntValue(1), "b": BoolValue(true)}
	m2 := MapValue{"b": BoolValue(true), "a": IntValue(1)}
	assert.True(t, Equal(m1, m2), "map field order must not affect equality")
}

func TestEqualFloatDistinguishesNegativeZero(t *testing.T) {
	// Bit-identical floats are equal; -0.0 and 0.0 have distinct bit
	// patterns and are therefore distinguished by this packing, unlike
	// IEEE-754 comparison semantics. See encodeFloat in canonical.go.
	// math.Copysign is needed because the Go constant -0.0 is positive zero.
	assert.False(t, Equal(FloatValue(0.0), FloatValue(math.Copysign(0, -1))))
	assert.True(t, Equal(FloatValue(1.5), FloatValue(1.5)))
}

func TestEqualRef(t *testing.T) {
	typeID := TypeID{Name: "widget", Digest: "abc"}
	r1 := RefValue{Ref: Reference{Type: typeID, Digest: "d1"}}
	r2 := RefValue{Ref: Reference{Type: typeID, Digest: "d1"}}
	r3 := RefValue{Ref: Reference{Type: typeID, Digest: "d2"}}
	assert.True(t, Equal(r1, r2))
	assert.False(t, Equal(r1, r3))
}
