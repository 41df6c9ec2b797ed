// Package gosource derives symbol records from Go source. Each loaded package
// becomes one intake batch: the package maps to a namespace record, named
// types to type records, and their methods, fields, and typed constants to
// member records.
package gosource

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/record"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Extract loads the packages matching patterns, rooted at dir, and derives
// one record batch per package. Record order follows source position, so the
// assembled model mirrors declaration order in the files.
func Extract(dir string, patterns []string) ([]record.Batch, error) {
	cfg := &packages.Config{Mode: loadMode, Dir: dir}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryIntake, "load go packages").
			WithContext("patterns", patterns).
			Build()
	}

	var batches []record.Batch
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, apperrors.IntakeError("package failed to load").
				WithContext("package", pkg.PkgPath).
				WithContext("error", pkg.Errors[0].Msg).
				Build()
		}
		batches = append(batches, extractPackage(pkg))
	}
	if len(batches) == 0 {
		return nil, apperrors.IntakeError("no go packages matched").
			WithContext("patterns", patterns).
			Build()
	}
	return batches, nil
}

type extractor struct {
	pkg  *packages.Package
	docs map[token.Pos]string
	raws []record.Raw
	pos  []token.Pos
}

func extractPackage(pkg *packages.Package) record.Batch {
	ex := &extractor{pkg: pkg, docs: indexDocs(pkg)}

	ex.add(record.Raw{
		QualifiedName: pkg.PkgPath,
		Kind:          string(record.KindNamespace),
		Summary:       packageDoc(pkg),
	}, token.NoPos)

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		switch obj := scope.Lookup(name).(type) {
		case *types.TypeName:
			if !obj.IsAlias() {
				ex.addType(obj)
			}
		case *types.Func:
			ex.addFunc(obj, pkg.PkgPath)
		case *types.Const:
			ex.addConst(obj)
		case *types.Var:
			ex.add(record.Raw{
				QualifiedName: pkg.PkgPath + "." + obj.Name(),
				Kind:          string(record.KindField),
				Signature:     ex.typeString(obj.Type()),
				Modifiers:     modifiers(obj.Exported()),
				Summary:       ex.docs[obj.Pos()],
				Parent:        pkg.PkgPath,
			}, obj.Pos())
		}
	}

	ex.finalize()
	return record.Batch{Origin: pkg.PkgPath, Raws: ex.raws}
}

func (ex *extractor) addType(obj *types.TypeName) {
	qualified := ex.pkg.PkgPath + "." + obj.Name()
	ex.add(record.Raw{
		QualifiedName: qualified,
		Kind:          string(record.KindType),
		Modifiers:     modifiers(obj.Exported()),
		BaseTypes:     ex.baseTypes(obj),
		Summary:       ex.docs[obj.Pos()],
		Parent:        ex.pkg.PkgPath,
	}, obj.Pos())

	named, ok := obj.Type().(*types.Named)
	if !ok {
		return
	}

	if st, ok := named.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if f.Embedded() {
				continue
			}
			ex.add(record.Raw{
				QualifiedName: qualified + "." + f.Name(),
				Kind:          string(record.KindField),
				Signature:     ex.typeString(f.Type()),
				Modifiers:     modifiers(f.Exported()),
				Summary:       ex.docs[f.Pos()],
				Parent:        qualified,
			}, f.Pos())
		}
	}

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		ex.add(record.Raw{
			QualifiedName: qualified + "." + m.Name(),
			Kind:          string(record.KindMethod),
			Signature:     ex.typeString(m.Type()),
			Modifiers:     modifiers(m.Exported()),
			Summary:       ex.docs[m.Pos()],
			Parent:        qualified,
		}, m.Pos())
	}

	if iface, ok := named.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumExplicitMethods(); i++ {
			m := iface.ExplicitMethod(i)
			ex.add(record.Raw{
				QualifiedName: qualified + "." + m.Name(),
				Kind:          string(record.KindMethod),
				Signature:     ex.typeString(m.Type()),
				Modifiers:     modifiers(m.Exported()),
				Summary:       ex.docs[m.Pos()],
				Parent:        qualified,
			}, m.Pos())
		}
	}
}

func (ex *extractor) addFunc(obj *types.Func, parent string) {
	ex.add(record.Raw{
		QualifiedName: ex.pkg.PkgPath + "." + obj.Name(),
		Kind:          string(record.KindMethod),
		Signature:     ex.typeString(obj.Type()),
		Modifiers:     modifiers(obj.Exported()),
		Summary:       ex.docs[obj.Pos()],
		Parent:        parent,
	}, obj.Pos())
}

// addConst maps a constant of a locally declared named type to an enum-member
// of that type; untyped and externally typed constants attach to the package.
func (ex *extractor) addConst(obj *types.Const) {
	parent := ex.pkg.PkgPath
	kind := record.KindField
	if named, ok := obj.Type().(*types.Named); ok {
		owner := named.Obj()
		if owner.Pkg() == ex.pkg.Types {
			parent = ex.pkg.PkgPath + "." + owner.Name()
			kind = record.KindEnumMember
		}
	}
	ex.add(record.Raw{
		QualifiedName: parent + "." + obj.Name(),
		Kind:          string(kind),
		Signature:     obj.Val().String(),
		Modifiers:     modifiers(obj.Exported()),
		Summary:       ex.docs[obj.Pos()],
		Parent:        parent,
	}, obj.Pos())
}

// baseTypes lists embedded struct fields and embedded interfaces, which is
// the closest Go gets to an inheritance clause.
func (ex *extractor) baseTypes(obj *types.TypeName) []string {
	var bases []string
	switch u := obj.Type().Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				bases = append(bases, qualifiedTypeName(f.Type()))
			}
		}
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			bases = append(bases, qualifiedTypeName(u.EmbeddedType(i)))
		}
	}
	return bases
}

func (ex *extractor) add(r record.Raw, pos token.Pos) {
	if r.Origin == "" {
		r.Origin = ex.pkg.PkgPath
	}
	ex.raws = append(ex.raws, r)
	ex.pos = append(ex.pos, pos)
}

// finalize assigns declaration order by source position. The namespace record
// carries token.NoPos and stays first.
func (ex *extractor) finalize() {
	order := make([]int, len(ex.raws))
	for i := range order {
		order[i] = i
	}
	fset := ex.pkg.Fset
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := fset.Position(ex.pos[order[a]]), fset.Position(ex.pos[order[b]])
		if pa.Filename != pb.Filename {
			return pa.Filename < pb.Filename
		}
		return pa.Offset < pb.Offset
	})
	sorted := make([]record.Raw, len(ex.raws))
	for declOrder, idx := range order {
		r := ex.raws[idx]
		r.DeclOrder = declOrder
		sorted[declOrder] = r
	}
	ex.raws = sorted
}

func (ex *extractor) typeString(t types.Type) string {
	return types.TypeString(t, func(p *types.Package) string {
		if p == ex.pkg.Types {
			return ""
		}
		return p.Name()
	})
}

func qualifiedTypeName(t types.Type) string {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		obj := named.Obj()
		if obj.Pkg() != nil {
			return obj.Pkg().Path() + "." + obj.Name()
		}
		return obj.Name()
	}
	return t.String()
}

func modifiers(exported bool) []string {
	if exported {
		return []string{"public"}
	}
	return []string{"internal"}
}

// indexDocs maps declared identifiers to their doc comments.
func indexDocs(pkg *packages.Package) map[token.Pos]string {
	docs := make(map[token.Pos]string)
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Doc != nil {
					docs[d.Name.Pos()] = cleanDoc(d.Doc.Text())
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						if doc := specDoc(s.Doc, d.Doc); doc != "" {
							docs[s.Name.Pos()] = doc
						}
						indexFieldDocs(s.Type, docs)
					case *ast.ValueSpec:
						doc := specDoc(s.Doc, d.Doc)
						for _, name := range s.Names {
							if doc != "" {
								docs[name.Pos()] = doc
							}
						}
					}
				}
			}
		}
	}
	return docs
}

func indexFieldDocs(expr ast.Expr, docs map[token.Pos]string) {
	var fields *ast.FieldList
	switch t := expr.(type) {
	case *ast.StructType:
		fields = t.Fields
	case *ast.InterfaceType:
		fields = t.Methods
	default:
		return
	}
	for _, f := range fields.List {
		if f.Doc == nil {
			continue
		}
		for _, name := range f.Names {
			docs[name.Pos()] = cleanDoc(f.Doc.Text())
		}
	}
}

func specDoc(own, group *ast.CommentGroup) string {
	if own != nil {
		return cleanDoc(own.Text())
	}
	if group != nil {
		return cleanDoc(group.Text())
	}
	return ""
}

func packageDoc(pkg *packages.Package) string {
	for _, file := range pkg.Syntax {
		if file.Doc != nil {
			return cleanDoc(file.Doc.Text())
		}
	}
	return ""
}

func cleanDoc(s string) string {
	return strings.TrimSpace(s)
}
