package record

// Kind is the symbol kind tag carried by a raw record. The set is closed;
// intake rejects anything else with an UnknownSymbolKind diagnostic.
type Kind string

const (
	KindNamespace   Kind = "namespace"
	KindType        Kind = "type"
	KindNestedType  Kind = "nested-type"
	KindField       Kind = "field"
	KindProperty    Kind = "property"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindEvent       Kind = "event"
	KindEnumMember  Kind = "enum-member"
	KindParameter   Kind = "parameter"
)

var knownKinds = map[Kind]bool{
	KindNamespace:   true,
	KindType:        true,
	KindNestedType:  true,
	KindField:       true,
	KindProperty:    true,
	KindMethod:      true,
	KindConstructor: true,
	KindEvent:       true,
	KindEnumMember:  true,
	KindParameter:   true,
}

// Known reports whether k is a member of the closed kind set.
func (k Kind) Known() bool { return knownKinds[k] }

// IsContainer reports whether symbols of this kind may own children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindNamespace, KindType, KindNestedType:
		return true
	case KindMethod, KindConstructor:
		// Methods and constructors own their parameters.
		return true
	}
	return false
}
