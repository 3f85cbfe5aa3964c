// cmd/sentra/main.go
package main

import (
	"fmt"
	"log"
	"os"

	jerrors "juliacore/internal/errors"

	"juliacore/internal/api"
	"juliacore/internal/vm"
)

const version = "1.0.0"

// Command aliases mapping, matching the shorthand the rest of the
// retrieval pack's CLI front doors use.
var commandAliases = map[string]string{
	"r": "run",
	"b": "build",
	"x": "exec",
	"c": "check",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("sentra", version)
		return
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		switch cmd {
		case "run":
			err = runCommand(args[1:])
		case "build":
			err = buildCommand(args[1:])
		case "exec":
			err = execCommand(args[1:])
		case "check":
			err = checkCommand(args[1:])
		default:
			showUsage()
			os.Exit(1)
		}
	}()

	if err != nil {
		if je, ok := err.(*jerrors.JuliaError); ok {
			log.Fatalf("%s", je.Error())
		}
		log.Fatalf("Error: %v", err)
	}
}

func showUsage() {
	fmt.Println(`sentra - juliacore runtime

Usage:
  sentra run <program.gob>              run(source) -> Value
  sentra build <program.gob> <out.sjbc> compile_to_bytecode(source, out_path)
  sentra exec <program.sjbc>            load_and_run_bytecode(path) -> Value
  sentra check <program.gob> [--strict] analyze_types(source, {strict}) -> Report

Aliases: r=run, b=build, x=exec, c=check

"program.gob" is a gob-encoded core.Program (internal/api.SaveProgram):
this build has no surface-syntax parser wired in (spec §1, §6 name the
CST parser as an external collaborator), so it takes Core IR directly.`)
}

func runCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sentra run <program.gob>")
	}
	prog, err := api.LoadProgram(args[0])
	if err != nil {
		return err
	}
	val, err := api.Run(prog, api.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(vm.DisplayValue(val))
	return nil
}

func buildCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sentra build <program.gob> <out.sjbc>")
	}
	prog, err := api.LoadProgram(args[0])
	if err != nil {
		return err
	}
	return api.CompileToBytecode(prog, args[1])
}

func execCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sentra exec <program.sjbc>")
	}
	val, err := api.LoadAndRunBytecode(args[0], api.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(vm.DisplayValue(val))
	return nil
}

func checkCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sentra check <program.gob> [--strict]")
	}
	opts := api.DefaultOptions()
	for _, a := range args[1:] {
		if a == "--strict" {
			opts.Strict = true
		}
		if a == "--json" {
			opts.JSON = true
		}
	}
	prog, err := api.LoadProgram(args[0])
	if err != nil {
		return err
	}
	report, err := api.AnalyzeTypes(prog, opts)
	if err != nil {
		fmt.Println(report.String())
		return err
	}
	fmt.Println(report.String())
	return nil
}
