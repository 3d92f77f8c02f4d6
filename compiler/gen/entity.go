package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/instant/schema"
)

// genEntity renders the file of a single entity: the record, create,
// update and where shapes plus the typed service wrapper.
func (g *Generator) genEntity(e *schema.Entity) *jen.File {
	f := g.newFile()
	name := g.config.typeNameFor(e.Name)

	f.Comment(fmt.Sprintf("%s is a record of the %s collection.", name, e.Name))
	f.Type().Id(name).Struct(g.modelFields(e)...)

	f.Comment(fmt.Sprintf("%sCreate is the payload for creating a %s record.", name, e.Name))
	f.Type().Id(name + "Create").Struct(g.payloadFields(e.CreateFields())...)

	f.Comment(fmt.Sprintf("%sUpdate is the payload for updating a %s record. Nil fields are left untouched.", name, e.Name))
	f.Type().Id(name + "Update").Struct(g.payloadFields(e.UpdateFields())...)

	if where := e.WhereFields(); len(where) > 0 {
		f.Comment(fmt.Sprintf("%sWhere is an equality filter over %s records.", name, e.Name))
		f.Type().Id(name + "Where").Struct(g.whereFields(where)...)
	}

	f.Comment(fmt.Sprintf("%sService exposes the typed operations of the %s collection.", name, e.Name))
	f.Type().Id(name + "Service").Struct(
		jen.Op("*").Qual(adminPkg, "Service").Index(
			jen.List(jen.Id(name), jen.Id(name+"Create"), jen.Id(name+"Update")),
		),
	)

	f.Func().Id("new" + name + "Service").Params(
		jen.Id("c").Op("*").Qual(adminPkg, "Client"),
		jen.Id("g").Op("*").Qual(schemaPkg, "Graph"),
	).Op("*").Id(name + "Service").Block(
		jen.Return(jen.Op("&").Id(name+"Service").Values(
			jen.Qual(adminPkg, "NewService").Index(
				jen.List(jen.Id(name), jen.Id(name+"Create"), jen.Id(name+"Update")),
			).Call(jen.Id("c"), jen.Id("g"), jen.Lit(e.Name)),
		)),
	)

	for _, key := range e.LinkKeys() {
		g.genLinkHelpers(f, e, name, key)
	}
	return f
}

// genLinkHelpers renders the Link/Unlink pair of a one-cardinality edge.
func (g *Generator) genLinkHelpers(f *jen.File, e *schema.Entity, name, key string) {
	rel, _ := e.Relation(key)
	suffix := fieldName(key)

	f.Comment(fmt.Sprintf("Link%s links a %s record to its %s (%s).", suffix, e.Name, key, rel.Target))
	f.Func().Params(jen.Id("s").Op("*").Id(name+"Service")).Id("Link"+suffix).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("id").String(),
		jen.Id("targetID").String(),
	).Error().Block(
		jen.Return(jen.Id("s").Dot("Link").Call(
			jen.Id("ctx"), jen.Id("id"),
			jen.Qual(transactPkg, "Edges").Values(jen.Dict{jen.Lit(key): jen.Id("targetID")}),
		)),
	)

	f.Comment(fmt.Sprintf("Unlink%s removes the %s edge of a %s record.", suffix, key, e.Name))
	f.Func().Params(jen.Id("s").Op("*").Id(name+"Service")).Id("Unlink"+suffix).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("id").String(),
		jen.Id("targetID").String(),
	).Error().Block(
		jen.Return(jen.Id("s").Dot("Unlink").Call(
			jen.Id("ctx"), jen.Id("id"),
			jen.Qual(transactPkg, "Edges").Values(jen.Dict{jen.Lit(key): jen.Id("targetID")}),
		)),
	)
}

// modelFields renders the record struct fields: id first, then the
// remaining attributes, then the relation slices in declaration order.
func (g *Generator) modelFields(e *schema.Entity) []jen.Code {
	fields := make([]jen.Code, 0, len(e.Attributes)+len(e.Relations)+1)
	fields = append(fields, jen.Id("ID").String().Tag(map[string]string{"json": "id,omitempty"}))
	for _, a := range e.Attributes {
		if a.Name == "id" {
			continue
		}
		fname := fieldName(a.Name)
		if a.Required {
			fields = append(fields, jen.Id(fname).Add(goType(a.Type)).Tag(map[string]string{"json": a.Name}))
			continue
		}
		fields = append(fields, jen.Id(fname).Add(pointerType(a.Type)).Tag(map[string]string{"json": a.Name + ",omitempty"}))
	}
	for _, r := range e.Relations {
		fields = append(fields, jen.Id(fieldName(r.Name)).
			Index().Id(g.config.typeNameFor(r.Target)).
			Tag(map[string]string{"json": r.Name + ",omitempty"}))
	}
	return fields
}

// payloadFields renders create and update struct fields. Relation fields
// carry the target record id as a string.
func (g *Generator) payloadFields(defs []schema.FieldDef) []jen.Code {
	fields := make([]jen.Code, 0, len(defs))
	for _, d := range defs {
		fname := fieldName(d.Name)
		switch {
		case d.Name == "id":
			// The runtime assigns a fresh id when the payload has none.
			fields = append(fields, jen.Id("ID").String().Tag(map[string]string{"json": "id,omitempty"}))
		case d.Required:
			fields = append(fields, jen.Id(fname).Add(goType(d.Type)).Tag(map[string]string{"json": d.Name}))
		default:
			fields = append(fields, jen.Id(fname).Add(pointerType(d.Type)).Tag(map[string]string{"json": d.Name + ",omitempty"}))
		}
	}
	return fields
}

// whereFields renders the equality filter struct fields, all optional.
func (g *Generator) whereFields(defs []schema.FieldDef) []jen.Code {
	fields := make([]jen.Code, 0, len(defs))
	for _, d := range defs {
		fname := fieldName(d.Name)
		fields = append(fields, jen.Id(fname).Add(pointerType(d.Type)).Tag(map[string]string{"json": d.Name + ",omitempty"}))
	}
	return fields
}
