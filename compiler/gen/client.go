package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/instant/schema"
)

// genClient renders client.go: the Client struct wiring one service per
// entity and the embedded schema snapshot the runtime resolves relations
// against.
func (g *Generator) genClient() *jen.File {
	f := g.newFile()
	entities := g.generated()

	clientFields := make([]jen.Code, 0, len(entities)+1)
	clientFields = append(clientFields, jen.Id("Admin").Op("*").Qual(adminPkg, "Client"))
	for _, e := range entities {
		clientFields = append(clientFields, jen.Id(fieldName(e.Name)).Op("*").Id(g.config.typeNameFor(e.Name)+"Service"))
	}

	f.Comment("Client is the typed admin client of this application.")
	f.Type().Id("Client").Struct(clientFields...)

	ctorFields := jen.Dict{
		jen.Id("Admin"): jen.Id("base"),
	}
	for _, e := range entities {
		ctorFields[jen.Id(fieldName(e.Name))] = jen.Id("new" + g.config.typeNameFor(e.Name) + "Service").Call(jen.Id("base"), jen.Id("g"))
	}

	f.Comment("NewClient creates a client authenticated with the app's admin token.")
	f.Func().Id("NewClient").Params(
		jen.Id("appID").String(),
		jen.Id("adminToken").String(),
		jen.Id("opts").Op("...").Qual(adminPkg, "Option"),
	).Op("*").Id("Client").Block(
		jen.Id("base").Op(":=").Qual(adminPkg, "NewClient").Call(
			jen.Id("appID"), jen.Id("adminToken"), jen.Id("opts").Op("..."),
		),
		jen.Id("g").Op(":=").Id("relationGraph").Call(),
		jen.Return(jen.Op("&").Id("Client").Values(ctorFields)),
	)

	f.Comment("relationGraph rebuilds the schema snapshot this client was generated from.")
	f.Func().Id("relationGraph").Params().Op("*").Qual(schemaPkg, "Graph").Block(
		jen.Return(jen.Qual(schemaPkg, "NewGraph").Call(
			jen.Qual(schemaPkg, "New").Call(g.entityLiterals()...),
		)),
	)
	return f
}

// entityLiterals renders the full schema as Entity literals. Skipped
// entities stay in the snapshot: the runtime still normalizes relations
// pointing at them.
func (g *Generator) entityLiterals() []jen.Code {
	all := g.graph.Entities()
	lits := make([]jen.Code, 0, len(all))
	for _, e := range all {
		d := jen.Dict{jen.Id("Name"): jen.Lit(e.Name)}
		if len(e.Attributes) > 0 {
			attrs := make([]jen.Code, 0, len(e.Attributes))
			for _, a := range e.Attributes {
				ad := jen.Dict{
					jen.Id("Name"): jen.Lit(a.Name),
					jen.Id("Type"): typeConst(a.Type),
				}
				if a.Required {
					ad[jen.Id("Required")] = jen.True()
				}
				attrs = append(attrs, jen.Values(ad))
			}
			d[jen.Id("Attributes")] = jen.Index().Op("*").Qual(schemaPkg, "Attribute").Values(attrs...)
		}
		if len(e.Relations) > 0 {
			rels := make([]jen.Code, 0, len(e.Relations))
			for _, r := range e.Relations {
				rd := jen.Dict{
					jen.Id("Name"):        jen.Lit(r.Name),
					jen.Id("Target"):      jen.Lit(r.Target),
					jen.Id("Cardinality"): cardinalityConst(r.Cardinality),
				}
				if r.Required {
					rd[jen.Id("Required")] = jen.True()
				}
				if r.Inverse {
					rd[jen.Id("Inverse")] = jen.True()
				}
				rels = append(rels, jen.Values(rd))
			}
			d[jen.Id("Relations")] = jen.Index().Op("*").Qual(schemaPkg, "Relation").Values(rels...)
		}
		lits = append(lits, jen.Op("&").Qual(schemaPkg, "Entity").Values(d))
	}
	return lits
}

func typeConst(t schema.Type) jen.Code {
	switch t {
	case schema.TypeString:
		return jen.Qual(schemaPkg, "TypeString")
	case schema.TypeNumber:
		return jen.Qual(schemaPkg, "TypeNumber")
	case schema.TypeInt:
		return jen.Qual(schemaPkg, "TypeInt")
	case schema.TypeBool:
		return jen.Qual(schemaPkg, "TypeBool")
	case schema.TypeTime:
		return jen.Qual(schemaPkg, "TypeTime")
	case schema.TypeJSON:
		return jen.Qual(schemaPkg, "TypeJSON")
	case schema.TypeUntyped:
		return jen.Qual(schemaPkg, "TypeUntyped")
	default:
		panic(fmt.Sprintf("gen: unknown attribute type %d", int(t)))
	}
}

func cardinalityConst(c schema.Cardinality) jen.Code {
	if c == schema.Many {
		return jen.Qual(schemaPkg, "Many")
	}
	return jen.Qual(schemaPkg, "One")
}
