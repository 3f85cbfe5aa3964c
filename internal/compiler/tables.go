package compiler

import (
	"fmt"

	"juliacore/internal/core"
	"juliacore/internal/dispatch"
	"juliacore/internal/lattice"
	"juliacore/internal/vm"
)

// builtinID resolves a builtin surface name to its BuiltinId, failing
// with a compiler error (rather than a panic) if the prelude/compiler's
// builtin name table and the VM's registry have drifted apart.
func (t *Tables) builtinID(name string, span core.Span) (uint16, error) {
	id, ok := vm.BuiltinNames[name]
	if !ok {
		return 0, errUnresolved(name, span)
	}
	return uint16(id), nil
}

var builtinKinds = map[string]lattice.ConcreteKind{
	"Int8": lattice.KindInt8, "Int16": lattice.KindInt16, "Int32": lattice.KindInt32,
	"Int64": lattice.KindInt64, "Int128": lattice.KindInt128,
	"UInt8": lattice.KindUInt8, "UInt16": lattice.KindUInt16, "UInt32": lattice.KindUInt32,
	"UInt64": lattice.KindUInt64, "UInt128": lattice.KindUInt128,
	"Float16": lattice.KindFloat16, "Float32": lattice.KindFloat32, "Float64": lattice.KindFloat64,
	"Bool": lattice.KindBool, "Char": lattice.KindChar, "String": lattice.KindString,
	"Nothing": lattice.KindNothing, "Missing": lattice.KindMissing, "Symbol": lattice.KindSymbol,
	"Any": lattice.KindAny,
}

// Tables is the compiler's working set while building the struct table,
// method table and globals table from a merged Core IR Program (spec
// §4.1 "Struct-table construction", "Method-table construction"). It is
// discarded once CompiledProgram is assembled; only the public tables it
// produces survive.
type Tables struct {
	program   *core.Program
	templates map[string]*core.StructDef // struct name -> template def
	structs   *dispatch.StructTable
	methods   *dispatch.MethodTable
	typeIndex *core.TypeIndex
	globals   []GlobalInfo
	globalIdx map[string]int
}

func newTables(program *core.Program) *Tables {
	t := &Tables{
		program:   program,
		templates: make(map[string]*core.StructDef),
		structs:   dispatch.NewStructTable(),
		globalIdx: make(map[string]int),
	}
	t.typeIndex = core.NewTypeIndex(program)
	t.methods = dispatch.NewMethodTableWithIndex(t.typeIndex)
	for _, s := range program.Structs {
		t.templates[s.Name] = s
	}
	return t
}

// resolve is the Tables-bound type-expression resolver: it knows how to
// instantiate a parametric struct template when a TypeExpr names one
// with type arguments.
func (t *Tables) resolve(te *core.TypeExpr, typeParams map[string]*core.TypeExpr, span core.Span) (lattice.Type, error) {
	if te == nil {
		return lattice.Any, nil
	}
	if bound, isParam := typeParams[te.Name]; isParam {
		if bound == nil {
			return lattice.Any, nil
		}
		return t.resolve(bound, typeParams, span)
	}
	if kind, ok := builtinKinds[te.Name]; ok {
		return lattice.Concrete(lattice.ConcreteType{Kind: kind}), nil
	}
	switch te.Name {
	case "Array", "Range":
		var elem *lattice.ConcreteType
		if len(te.Args) > 0 {
			et, err := t.resolve(&te.Args[0], typeParams, span)
			if err != nil {
				return lattice.Type{}, err
			}
			c, _ := et.AsConcrete()
			elem = &c
		}
		kind := lattice.KindArray
		if te.Name == "Range" {
			kind = lattice.KindRange
		}
		return lattice.Concrete(lattice.ConcreteType{Kind: kind, Elem: elem}), nil
	case "Tuple", "Union":
		elems := make([]lattice.ConcreteType, len(te.Args))
		for i := range te.Args {
			et, err := t.resolve(&te.Args[i], typeParams, span)
			if err != nil {
				return lattice.Type{}, err
			}
			c, _ := et.AsConcrete()
			elems[i] = c
		}
		kind := lattice.KindTuple
		if te.Name == "Union" {
			kind = lattice.KindUnion
		}
		return lattice.Concrete(lattice.ConcreteType{Kind: kind, Elems: elems}), nil
	}
	typeArgs := make([]lattice.ConcreteType, len(te.Args))
	for i := range te.Args {
		et, err := t.resolve(&te.Args[i], typeParams, span)
		if err != nil {
			return lattice.Type{}, err
		}
		c, _ := et.AsConcrete()
		typeArgs[i] = c
	}
	if tmpl, ok := t.templates[te.Name]; ok && len(typeArgs) > 0 {
		id, err := t.instantiate(tmpl, typeArgs, span)
		if err != nil {
			return lattice.Type{}, err
		}
		info, _ := t.structs.Lookup(id)
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: info.Name, TypeArgs: info.TypeArgs}), nil
	}
	// Non-parametric struct, or an abstract-type name: represented by
	// name alone. Intern non-parametric structs once so field lookups
	// work the same way as for instantiations.
	if tmpl, ok := t.templates[te.Name]; ok && len(tmpl.TypeParams) == 0 {
		id, err := t.instantiate(tmpl, nil, span)
		if err != nil {
			return lattice.Type{}, err
		}
		info, _ := t.structs.Lookup(id)
		return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: info.Name}), nil
	}
	return lattice.Concrete(lattice.ConcreteType{Kind: lattice.KindStruct, Name: te.Name, TypeArgs: typeArgs}), nil
}

// instantiate binds tmpl's TypeParams positionally to args, substitutes
// field annotations, and interns the concrete StructInfo (spec §4.1
// "Parametric structs are templates... each distinct instantiation is
// registered as its own concrete type_id on demand").
func (t *Tables) instantiate(tmpl *core.StructDef, args []lattice.ConcreteType, span core.Span) (int, error) {
	if len(tmpl.TypeParams) > 0 && len(args) != len(tmpl.TypeParams) {
		return 0, errMalformed(fmt.Sprintf("struct %s expects %d type arguments, got %d", tmpl.Name, len(tmpl.TypeParams), len(args)), span)
	}
	binding := make(map[string]*core.TypeExpr, len(tmpl.TypeParams))
	argExprs := make([]core.TypeExpr, len(args))
	for i, a := range args {
		argExprs[i] = concreteToTypeExpr(a)
		if i < len(tmpl.TypeParams) {
			binding[tmpl.TypeParams[i].Name] = &argExprs[i]
		}
	}
	fields := make([]dispatch.FieldInfo, len(tmpl.Fields))
	for i, f := range tmpl.Fields {
		ft, err := t.resolve(f.Type, binding, span)
		if err != nil {
			return 0, err
		}
		fields[i] = dispatch.FieldInfo{Name: f.Name, Type: ft}
	}
	id := t.structs.Intern(dispatch.StructInfo{
		Name: tmpl.Name, Mutable: tmpl.Mutable, TypeArgs: args,
		Fields: fields, Parent: tmpl.Parent,
	})
	return id, nil
}

func concreteToTypeExpr(c lattice.ConcreteType) core.TypeExpr {
	if c.Kind == lattice.KindStruct {
		args := make([]core.TypeExpr, len(c.TypeArgs))
		for i, a := range c.TypeArgs {
			args[i] = concreteToTypeExpr(a)
		}
		return core.TypeExpr{Name: c.Name, Args: args}
	}
	return core.TypeExpr{Name: c.Kind.String()}
}

// buildStructTemplates interns every non-parametric struct up front so
// they have a type_id even if never explicitly instantiated by a call
// site, matching the teacher's "register every struct at compile start"
// shape from sentra's compiler.go struct-table pass.
func (t *Tables) buildStructTemplates() error {
	for _, s := range t.program.Structs {
		if len(s.TypeParams) == 0 {
			if _, err := t.instantiate(s, nil, s.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildMethodTable registers one dispatch.Method per Core IR Function, in
// Program.Functions declaration order, resolving each parameter's
// declared (or Any) type (spec §4.1 "Method-table construction").
// Module-qualified call sites (`Base.sin`) are normalized to their bare
// form by compileModuleCall, not here, so they land in the same table
// entry as a bare `sin`. Since prelude.Merge prepends prelude functions
// before any user function, and dispatch.MethodTable.Resolve breaks
// exact-name ties by earlier declaration order, a prelude function wins
// any collision against a same-named user function entered here without
// this pass needing to special-case it (spec §9).
func (t *Tables) buildMethodTable() error {
	for i, fn := range t.program.Functions {
		typeParams := make(map[string]*core.TypeExpr, len(fn.Where))
		for _, tp := range fn.Where {
			typeParams[tp.Name] = tp.Bound
		}
		argTypes := make([]lattice.Type, len(fn.Params))
		varargs := false
		for j, p := range fn.Params {
			pt, err := t.resolve(p.Type, typeParams, p.Span)
			if err != nil {
				return err
			}
			argTypes[j] = pt
			if p.Varargs {
				if j != len(fn.Params)-1 {
					return errMalformed("varargs parameter must be last", p.Span)
				}
				varargs = true
			}
		}
		retType, err := t.resolve(fn.ReturnType, typeParams, fn.Span)
		if err != nil {
			return err
		}
		t.methods.Add(dispatch.Method{
			Name: fn.Name, ArgTypes: argTypes, Varargs: varargs,
			ReturnType: retType, FuncIndex: i,
		})
	}
	return nil
}

// buildGlobals assigns a stable slot index to every top-level Global.
func (t *Tables) buildGlobals() {
	for _, g := range t.program.Globals {
		idx := len(t.globals)
		t.globalIdx[g.Name] = idx
		t.globals = append(t.globals, GlobalInfo{Name: g.Name, Index: idx})
	}
}
