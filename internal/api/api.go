// Package api implements the four external entry points spec §6 names
// (run, compile_to_bytecode, load_and_run_bytecode, analyze_types). The
// surface-syntax parser that would turn program text into a core.Program
// is an out-of-scope external collaborator (spec §1, §6); cmd/sentra
// feeds these functions an already-built core.Program (see
// internal/api/programio.go and DESIGN.md "CLI input format").
package api

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/kr/text"
	pkgerrors "github.com/pkg/errors"

	"juliacore/internal/bcfile"
	"juliacore/internal/compiler"
	"juliacore/internal/core"
	"juliacore/internal/engine"
	"juliacore/internal/infer"
	"juliacore/internal/prelude"
	"juliacore/internal/vm"
)

// Options mirrors SPEC_FULL.md §2's configuration struct: the four entry
// points' only configuration surface, since flag parsing itself belongs
// to the CLI collaborator.
type Options struct {
	Strict                 bool
	JSON                   bool
	MaxInferenceIterations int
	MaxLoopFixpoint        int
	RecursionDepthCap      int
}

// DefaultOptions matches the inference engine's and VM's own built-in
// defaults (infer.New, vm.NewVm) so a zero-value Options behaves the same
// as not passing one.
func DefaultOptions() Options {
	return Options{
		MaxInferenceIterations: 64,
		MaxLoopFixpoint:        16,
		RecursionDepthCap:      4096,
	}
}

func compileAndLink(prog *core.Program) (*vm.Program, error) {
	merged, err := prelude.Merge(prog)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "merge_prelude")
	}
	cp, err := compiler.CompileProgram(merged)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "compile")
	}
	return engine.Link(cp), nil
}

func newVm(linked *vm.Program, opts Options) *vm.Vm {
	v := vm.NewVm(linked)
	if opts.RecursionDepthCap > 0 {
		v.SetMaxDepth(opts.RecursionDepthCap)
	}
	return v
}

// Run compiles prog and executes its main entry, returning the value the
// program's top-level block produces (spec §6 "run(source) -> Value").
func Run(prog *core.Program, opts Options) (vm.Value, error) {
	linked, err := compileAndLink(prog)
	if err != nil {
		return vm.Value{}, err
	}
	v := newVm(linked, opts)
	val, err := v.RunMain()
	if err != nil {
		return vm.Value{}, pkgerrors.Wrap(err, "run")
	}
	return val, nil
}

// CompileToBytecode compiles prog and serializes it to outPath in the
// on-disk format internal/bcfile defines (spec §6 "compile_to_bytecode
// (source, out_path) -> Result").
func CompileToBytecode(prog *core.Program, outPath string) error {
	linked, err := compileAndLink(prog)
	if err != nil {
		return err
	}
	if err := bcfile.Save(linked, outPath); err != nil {
		return pkgerrors.Wrap(err, "compile_to_bytecode")
	}
	return nil
}

// LoadAndRunBytecode loads a previously serialized program and executes
// it (spec §6 "load_and_run_bytecode(path) -> Value").
func LoadAndRunBytecode(path string, opts Options) (vm.Value, error) {
	linked, err := bcfile.Load(path)
	if err != nil {
		return vm.Value{}, pkgerrors.Wrap(err, "load_and_run_bytecode")
	}
	v := newVm(linked, opts)
	val, err := v.RunMain()
	if err != nil {
		return vm.Value{}, pkgerrors.Wrap(err, "load_and_run_bytecode")
	}
	return val, nil
}

// Report is analyze_types' output: the inferred return type of every
// top-level function plus any non-fatal diagnostics the inference engine
// raised along the way (spec §6 "analyze_types(source, {strict, json})
// -> Report", spec §7 "the inference engine emits diagnostics but does
// not halt").
type Report struct {
	Functions   map[string]string
	Diagnostics []infer.Diagnostic
}

// String renders the report the way the teacher's own diagnostics print:
// a kr/pretty struct dump for the function table, with any diagnostics
// indented underneath via kr/text rather than hand-rolled padding
// (SPEC_FULL.md §2 "Logging/reporting").
func (r Report) String() string {
	out := pretty.Sprintf("functions: %# v\n", r.Functions)
	if len(r.Diagnostics) == 0 {
		return out
	}
	var diags strings.Builder
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&diags, "[%s] %s\n", d.Reason, d.Message)
	}
	return out + "diagnostics:\n" + text.Indent(diags.String(), "  ")
}

// AnalyzeTypes runs the inference engine over every top-level function in
// prog and reports its result without executing anything (spec §6
// "analyze_types"). In strict mode a diagnostic is promoted to an error:
// Options.Strict matches the original engine's "treat unresolved calls as
// failures" mode for CI-style usage.
func AnalyzeTypes(prog *core.Program, opts Options) (Report, error) {
	merged, err := prelude.Merge(prog)
	if err != nil {
		return Report{}, pkgerrors.Wrap(err, "merge_prelude")
	}

	eng := infer.New(merged)
	if opts.MaxInferenceIterations > 0 {
		eng.MaxCallDepth = opts.MaxInferenceIterations
	}
	if opts.MaxLoopFixpoint > 0 {
		eng.MaxLoopFixpoint = opts.MaxLoopFixpoint
	}

	report := Report{Functions: make(map[string]string, len(merged.Functions))}
	for _, fn := range merged.Functions {
		report.Functions[fn.Name] = eng.InferFunction(fn).String()
	}
	report.Diagnostics = eng.Diagnostics()

	if opts.Strict && len(report.Diagnostics) > 0 {
		return report, pkgerrors.Errorf("analyze_types: %d diagnostic(s) in strict mode", len(report.Diagnostics))
	}
	return report, nil
}
