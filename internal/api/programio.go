package api

import (
	"encoding/gob"
	"os"

	pkgerrors "github.com/pkg/errors"

	"juliacore/internal/core"
)

// init registers every concrete Expr/Stmt node gob needs to know about to
// round-trip a core.Program through its Expr/Stmt interface fields. The
// surface-syntax parser that would normally produce a core.Program from
// program text is an out-of-scope external collaborator (spec §1, §6);
// until one is wired in, a juliacore program is built by some other
// front end and handed to this CLI as a gob-encoded core.Program (see
// DESIGN.md "CLI input format").
func init() {
	gob.Register(&core.Literal{})
	gob.Register(&core.Variable{})
	gob.Register(&core.FieldAccess{})
	gob.Register(&core.IndexExpr{})
	gob.Register(&core.RangeExpr{})
	gob.Register(&core.BinaryExpr{})
	gob.Register(&core.UnaryExpr{})
	gob.Register(&core.TernaryExpr{})
	gob.Register(&core.CallExpr{})
	gob.Register(&core.ModuleCallExpr{})
	gob.Register(&core.BuiltinCallExpr{})
	gob.Register(&core.ArrayLiteral{})
	gob.Register(&core.TypedEmptyArray{})
	gob.Register(&core.TupleLiteral{})
	gob.Register(&core.StructLiteral{})
	gob.Register(&core.FieldSplat{})
	gob.Register(&core.PairExpr{})
	gob.Register(&core.Comprehension{})
	gob.Register(&core.Generator{})
	gob.Register(&core.QuoteLiteral{})

	gob.Register(&core.LetStmt{})
	gob.Register(&core.AssignStmt{})
	gob.Register(&core.CompoundAssignStmt{})
	gob.Register(&core.ReturnStmt{})
	gob.Register(&core.BreakStmt{})
	gob.Register(&core.ContinueStmt{})
	gob.Register(&core.IfStmt{})
	gob.Register(&core.ForRangeStmt{})
	gob.Register(&core.ForEachStmt{})
	gob.Register(&core.WhileStmt{})
	gob.Register(&core.TryStmt{})
	gob.Register(&core.ExprStmt{})
}

// LoadProgram reads a gob-encoded core.Program from path.
func LoadProgram(path string) (*core.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open program")
	}
	defer f.Close()

	var prog core.Program
	if err := gob.NewDecoder(f).Decode(&prog); err != nil {
		return nil, pkgerrors.Wrap(err, "decode program")
	}
	return &prog, nil
}

// SaveProgram gob-encodes prog to path, the inverse of LoadProgram; used
// by tooling upstream of this CLI to hand it a program, and by tests that
// need a round-trippable fixture.
func SaveProgram(prog *core.Program, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(err, "create program file")
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(prog); err != nil {
		return pkgerrors.Wrap(err, "encode program")
	}
	return nil
}
