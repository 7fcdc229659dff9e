package resource

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// PackedResource is the recursively packed form of a Resource: a type
// identifier paired with a mapping from field name to packed field value.
// Packed field values are JSON-equivalent trees built from nil, bool,
// int64, string, map[string]any, and []any, with bytes/refs/type-handles/
// embedded-resources/floats wrapped in small tag objects (see packValue).
type PackedResource struct {
	Type   TypeID
	Fields map[string]any
}

// tag keys for field value shapes that are not plain JSON scalars or
// arrays. A MapValue is itself wrapped under tagMap rather than packed as
// a bare object, so every packed object is unambiguously either one of
// these six single-key tag wrappers or a malformed tree: no object an
// ordinary MapValue packs to can ever collide with a tag, because its
// fields always live one level down, inside the tagMap wrapper, where
// they are taken literally instead of being re-run through tag detection.
const (
	tagBytes    = "$bytes"
	tagRef      = "$ref"
	tagType     = "$type"
	tagResource = "$resource"
	tagFloat    = "$float"
	tagMap      = "$map"
)

// Pack converts a Resource into its packed form. It rejects resources
// whose FieldNames() and FieldValues() lengths disagree.
func Pack(r Resource) (PackedResource, error) {
	names := r.FieldNames()
	values := r.FieldValues()
	if len(names) != len(values) {
		return PackedResource{}, fmt.Errorf("resource: %s: %d field names but %d field values", r.TypeID(), len(names), len(values))
	}
	fields := make(map[string]any, len(names))
	for i, name := range names {
		packed, err := packValue(values[i])
		if err != nil {
			return PackedResource{}, fmt.Errorf("resource: %s.%s: %w", r.TypeID(), name, err)
		}
		fields[name] = packed
	}
	return PackedResource{Type: r.TypeID(), Fields: fields}, nil
}

// Unpack reconstructs a Resource from its packed form using reg to resolve
// the constructor registered for p.Type.
func Unpack(p PackedResource, reg *Registry) (Resource, error) {
	ctor, ok := reg.Lookup(p.Type)
	if !ok {
		return nil, &UnknownTypeError{Type: p.Type}
	}
	fields := make(map[string]FieldValue, len(p.Fields))
	for name, packed := range p.Fields {
		fv, err := unpackValue(packed, reg)
		if err != nil {
			return nil, fmt.Errorf("resource: %s.%s: %w", p.Type, name, err)
		}
		fields[name] = fv
	}
	return ctor(fields)
}

func packTypeID(t TypeID) map[string]any {
	return map[string]any{"name": t.Name, "digest": t.Digest}
}

func unpackTypeID(v any) (TypeID, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return TypeID{}, fmt.Errorf("resource: malformed type_id")
	}
	name, _ := m["name"].(string)
	digest, _ := m["digest"].(string)
	return TypeID{Name: name, Digest: digest}, nil
}

func packValue(fv FieldValue) (any, error) {
	switch val := fv.(type) {
	case NoneValue:
		return nil, nil
	case IntValue:
		return int64(val), nil
	case FloatValue:
		return map[string]any{tagFloat: encodeFloat(float64(val))}, nil
	case BoolValue:
		return bool(val), nil
	case StringValue:
		return string(val), nil
	case BytesValue:
		return map[string]any{tagBytes: base64.StdEncoding.EncodeToString(val)}, nil
	case RefValue:
		return map[string]any{tagRef: map[string]any{
			"type":   packTypeID(val.Ref.Type),
			"digest": val.Ref.Digest,
		}}, nil
	case TypeValue:
		return map[string]any{tagType: packTypeID(val.Type)}, nil
	case ListValue:
		elems := make([]any, len(val))
		for i, elem := range val {
			packed, err := packValue(elem)
			if err != nil {
				return nil, err
			}
			elems[i] = packed
		}
		return elems, nil
	case MapValue:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			packed, err := packValue(elem)
			if err != nil {
				return nil, err
			}
			m[k] = packed
		}
		return map[string]any{tagMap: m}, nil
	case EmbeddedValue:
		packedResource, err := Pack(val.Resource)
		if err != nil {
			return nil, err
		}
		tree, err := packedResourceTree(packedResource)
		if err != nil {
			return nil, err
		}
		return map[string]any{tagResource: tree}, nil
	default:
		return nil, fmt.Errorf("resource: unrecognized field value type %T", fv)
	}
}

// packedResourceTree converts a PackedResource into the generic JSON-
// equivalent tree used both for hashing (canonicalBytes) and for embedding
// a resource inside another resource's field.
func packedResourceTree(p PackedResource) (map[string]any, error) {
	return map[string]any{
		"type_id": packTypeID(p.Type),
		"fields":  p.Fields,
	}, nil
}

func treeToPackedResource(tree map[string]any) (PackedResource, error) {
	typeID, err := unpackTypeID(tree["type_id"])
	if err != nil {
		return PackedResource{}, err
	}
	fields, ok := tree["fields"].(map[string]any)
	if !ok {
		return PackedResource{}, fmt.Errorf("resource: malformed packed resource fields")
	}
	return PackedResource{Type: typeID, Fields: fields}, nil
}

func unpackValue(v any, reg *Registry) (FieldValue, error) {
	switch val := v.(type) {
	case nil:
		return NoneValue{}, nil
	case bool:
		return BoolValue(val), nil
	case int64:
		return IntValue(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("resource: non-integer bare number %q", val.String())
		}
		return IntValue(n), nil
	case string:
		return StringValue(val), nil
	case []any:
		elems := make(ListValue, len(val))
		for i, elem := range val {
			fv, err := unpackValue(elem, reg)
			if err != nil {
				return nil, err
			}
			elems[i] = fv
		}
		return elems, nil
	case map[string]any:
		return unpackTaggedOrMap(val, reg)
	default:
		return nil, fmt.Errorf("resource: unrecognized packed value %T", v)
	}
}

func unpackTaggedOrMap(m map[string]any, reg *Registry) (FieldValue, error) {
	if len(m) == 1 {
		if raw, ok := m[tagMap]; ok {
			inner, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("resource: malformed %s", tagMap)
			}
			fields := make(MapValue, len(inner))
			for k, elem := range inner {
				fv, err := unpackValue(elem, reg)
				if err != nil {
					return nil, err
				}
				fields[k] = fv
			}
			return fields, nil
		}
		if raw, ok := m[tagBytes]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("resource: malformed %s", tagBytes)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("resource: malformed %s: %w", tagBytes, err)
			}
			return BytesValue(b), nil
		}
		if raw, ok := m[tagFloat]; ok {
			fm, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("resource: malformed %s", tagFloat)
			}
			f, err := decodeFloat(fm)
			if err != nil {
				return nil, err
			}
			return FloatValue(f), nil
		}
		if raw, ok := m[tagType]; ok {
			typeID, err := unpackTypeID(raw)
			if err != nil {
				return nil, err
			}
			return TypeValue{Type: typeID}, nil
		}
		if raw, ok := m[tagRef]; ok {
			refMap, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("resource: malformed %s", tagRef)
			}
			typeID, err := unpackTypeID(refMap["type"])
			if err != nil {
				return nil, err
			}
			digest, _ := refMap["digest"].(string)
			return RefValue{Ref: Reference{Type: typeID, Digest: digest}}, nil
		}
		if raw, ok := m[tagResource]; ok {
			tree, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("resource: malformed %s", tagResource)
			}
			packed, err := treeToPackedResource(tree)
			if err != nil {
				return nil, err
			}
			inner, err := Unpack(packed, reg)
			if err != nil {
				return nil, err
			}
			return EmbeddedValue{Resource: inner}, nil
		}
	}
	return nil, fmt.Errorf("resource: packed object is not a recognized tag wrapper (expected exactly one of %s, %s, %s, %s, %s, %s)",
		tagMap, tagBytes, tagFloat, tagType, tagRef, tagResource)
}
