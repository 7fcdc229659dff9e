package resource

// NoneResource is the canonical empty resource, used as the default input
// or output when an invokable has nothing meaningful to carry.
type NoneResource struct{}

var noneResourceTypeID = MustRegister("enact.None", func(map[string]FieldValue) (Resource, error) {
	return NoneResource{}, nil
})

// NoneResourceTypeID returns the stable type identifier for NoneResource.
func NoneResourceTypeID() TypeID { return noneResourceTypeID }

func (NoneResource) TypeID() TypeID           { return noneResourceTypeID }
func (NoneResource) FieldNames() []string     { return nil }
func (NoneResource) FieldValues() []FieldValue { return nil }
