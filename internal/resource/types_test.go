package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeIDEqualityIsByDigest(t *testing.T) {
	a := TypeID{Name: "a", Digest: "same"}
	b := TypeID{Name: "b", Digest: "same"}
	assert.True(t, a.Equal(b), "type identity is the digest, not the name")
}

func TestReferenceEqual(t *testing.T) {
	typeID := TypeID{Name: "t", Digest: "td"}
	r1 := Reference{Type: typeID, Digest: "d1"}
	r2 := Reference{Type: typeID, Digest: "d1"}
	r3 := Reference{Type: typeID, Digest: "d2"}
	assert.True(t, r1.Equal(r2))
	assert.False(t, r1.Equal(r3))
}

func TestReferenceLessIsATotalOrder(t *testing.T) {
	typeID := TypeID{Name: "t", Digest: "td"}
	r1 := Reference{Type: typeID, Digest: "aaa"}
	r2 := Reference{Type: typeID, Digest: "bbb"}
	assert.True(t, r1.Less(r2))
	assert.False(t, r2.Less(r1))
	assert.False(t, r1.Less(r1))
}
