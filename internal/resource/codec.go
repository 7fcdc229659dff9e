package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders a packed resource as its canonical bytes, the same bytes
// Digest hashes. Backends store exactly this.
func Encode(p PackedResource) ([]byte, error) {
	tree, err := packedResourceTree(p)
	if err != nil {
		return nil, err
	}
	return canonicalBytes(tree)
}

// Decode parses bytes previously produced by Encode back into a
// PackedResource. It is not canonical-order sensitive: any valid JSON
// object with the expected shape decodes. No digest is computed or
// checked here.
func Decode(data []byte) (PackedResource, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return PackedResource{}, fmt.Errorf("resource: decode packed resource: %w", err)
	}
	return treeToPackedResource(tree)
}
