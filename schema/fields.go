package schema

// FieldDef describes one field of a derived create, update or where shape.
type FieldDef struct {
	// Name is the field name on the wire.
	Name string
	// Type is the semantic type. Relation id fields are TypeString.
	Type Type
	// Required indicates the field must be present.
	Required bool
	// Relation is true when the field carries the id of a one-cardinality
	// relation rather than an attribute value.
	Relation bool
}

// CreateFields returns the fields accepted on create: every attribute plus
// every one-cardinality relation as an optional identifier string, required
// when the relation is required.
func (e *Entity) CreateFields() []FieldDef {
	fields := make([]FieldDef, 0, len(e.Attributes)+len(e.Relations))
	for _, a := range e.Attributes {
		fields = append(fields, FieldDef{Name: a.Name, Type: a.Type, Required: a.Required})
	}
	for _, r := range e.Relations {
		if r.Cardinality != One {
			continue
		}
		fields = append(fields, FieldDef{Name: r.Name, Type: TypeString, Required: r.Required, Relation: true})
	}
	return fields
}

// UpdateFields returns the same field set as CreateFields with every field
// optional.
func (e *Entity) UpdateFields() []FieldDef {
	fields := e.CreateFields()
	for i := range fields {
		fields[i].Required = false
	}
	return fields
}

// WhereFields returns the attributes that are legal in an equality filter:
// string, number and time attributes only.
func (e *Entity) WhereFields() []FieldDef {
	var fields []FieldDef
	for _, a := range e.Attributes {
		switch a.Type {
		case TypeString, TypeNumber, TypeTime:
			fields = append(fields, FieldDef{Name: a.Name, Type: a.Type})
		}
	}
	return fields
}

// ExpandKeys returns every relation field name of the entity.
func (e *Entity) ExpandKeys() []string {
	keys := make([]string, 0, len(e.Relations))
	for _, r := range e.Relations {
		keys = append(keys, r.Name)
	}
	return keys
}

// LinkKeys returns the relation field names a link call accepts: the
// one-cardinality relations, mirroring the single-edge wire shape.
func (e *Entity) LinkKeys() []string {
	var keys []string
	for _, r := range e.Relations {
		if r.Cardinality == One {
			keys = append(keys, r.Name)
		}
	}
	return keys
}
