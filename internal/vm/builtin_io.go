package vm

import (
	"fmt"
	"os"
	"strings"

	"juliacore/internal/bytecode"
	"juliacore/internal/errors"
)

// openModeFlags mirrors Julia's fopen-style mode strings (spec §9 "Open
// modes `r`, `r+`, `w`, `w+`, `a`, `a+`"), grounded on the original's
// `open` builtin (`src/vm/builtins_io.rs`) mode-to-flag table.
var openModeFlags = map[string]int{
	"r":  os.O_RDONLY,
	"r+": os.O_RDWR,
	"w":  os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	"w+": os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"a":  os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	"a+": os.O_RDWR | os.O_CREATE | os.O_APPEND,
}

// dispatchIOBuiltin owns the synchronous, single-threaded I/O surface
// spec §5 describes ("I/O is synchronous"): println/print/readline
// (stdout/stdin by default, or an explicit IO handle as their first
// argument), the stdout/stderr/stdin handle constructors, IOBuffer/take!,
// write, and open/close/isopen for files (spec §3.3's IOValue shape).
// `include` itself stays with the external surface-syntax-parser
// collaborator (spec §1): only `include_dependency`'s no-op form, which
// the original treats the same way pending precompilation support, is
// implemented here.
func (vm *Vm) dispatchIOBuiltin(id bytecode.BuiltinId, args []Value) (Value, bool, error) {
	switch id {
	case BuiltinPrintln:
		return vm.ioPrint(args, true)
	case BuiltinPrint:
		return vm.ioPrint(args, false)
	case BuiltinReadline:
		if len(args) == 1 && args[0].Kind == KIO {
			return vm.ioReadline(args[0].Io)
		}
		return vm.stdinReadline()

	case BuiltinStdout:
		return Value{Kind: KIO, Io: &IOValue{Kind: "stdout"}}, true, nil
	case BuiltinStderr:
		return Value{Kind: KIO, Io: &IOValue{Kind: "stderr"}}, true, nil
	case BuiltinStdin:
		return Value{Kind: KIO, Io: &IOValue{Kind: "stdin"}}, true, nil

	case BuiltinIOBuffer:
		return Value{Kind: KIO, Io: &IOValue{Kind: "buffer", Buf: &strings.Builder{}}}, true, nil

	case BuiltinTakeBang:
		if len(args) != 1 || args[0].Kind != KIO || args[0].Io.Kind != "buffer" {
			return Value{}, true, errors.NewTypeError("take! requires an IOBuffer")
		}
		io := args[0].Io
		s := io.Buf.String()
		io.Buf.Reset()
		return Str(s), true, nil

	case BuiltinWrite:
		if len(args) < 1 || args[0].Kind != KIO {
			return Value{}, true, errors.NewTypeError("write requires an IO handle as its first argument")
		}
		io := args[0].Io
		for _, v := range args[1:] {
			if err := vm.ioWriteString(io, valueToDisplayString(v)); err != nil {
				return Value{}, true, err
			}
		}
		return args[0], true, nil

	case BuiltinOpen:
		return vm.ioOpen(args)

	case BuiltinClose:
		if len(args) != 1 || args[0].Kind != KIO {
			return Value{}, true, errors.NewTypeError("close requires an IO handle")
		}
		args[0].Io.Close()
		return Nil(), true, nil

	case BuiltinIsopen:
		if len(args) != 1 || args[0].Kind != KIO {
			return Value{}, true, errors.NewTypeError("isopen requires an IO handle")
		}
		return Bool(!args[0].Io.Closed()), true, nil

	case BuiltinIncludeDependency:
		return Nil(), true, nil
	}
	return Value{}, false, nil
}

// ioPrint implements print/println: with an IO handle as the first
// argument the remaining args are written there (buffer/file) or through
// the owning Vm's writer (stdout/stderr); otherwise every arg is printed
// to vm.Stdout, matching the original's "first arg not IO -> stdout"
// fallback (`src/vm/builtins_io.rs`'s `IOPrint`).
func (vm *Vm) ioPrint(args []Value, newline bool) (Value, bool, error) {
	if len(args) > 0 && args[0].Kind == KIO {
		io := args[0].Io
		for _, a := range args[1:] {
			if err := vm.ioWriteString(io, valueToDisplayString(a)); err != nil {
				return Value{}, true, err
			}
		}
		if newline {
			if err := vm.ioWriteString(io, "\n"); err != nil {
				return Value{}, true, err
			}
		}
		return Nil(), true, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = valueToDisplayString(a)
	}
	s := strings.Join(parts, "")
	if newline {
		fmt.Fprintln(vm.Stdout, s)
	} else {
		fmt.Fprint(vm.Stdout, s)
	}
	return Nil(), true, nil
}

// ioWriteString routes one chunk of text to the writer an IOValue's Kind
// names: stdout/stderr go through the owning Vm's own fields so tests
// can redirect them, buffer appends in place, file writes to the open
// *os.File.
func (vm *Vm) ioWriteString(io *IOValue, s string) error {
	if io.Closed() {
		return errors.NewErrorException("write: IO stream is closed")
	}
	switch io.Kind {
	case "stdout":
		_, err := fmt.Fprint(vm.Stdout, s)
		return err
	case "stderr":
		_, err := fmt.Fprint(vm.Stderr, s)
		return err
	case "buffer":
		io.Buf.WriteString(s)
		return nil
	case "file":
		_, err := io.File.WriteString(s)
		return err
	}
	return errors.NewTypeError(fmt.Sprintf("cannot write to a %s IO stream", io.Kind))
}

func (vm *Vm) stdinReadline() (Value, bool, error) {
	line, err := vm.Stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return Str(""), true, nil
	}
	return Str(line), true, nil
}

// ioReadline reads one line from a stdin/file/buffer IO handle, EOF
// returning an empty string the way the original's file readline does.
func (vm *Vm) ioReadline(io *IOValue) (Value, bool, error) {
	switch io.Kind {
	case "stdin":
		return vm.stdinReadline()
	case "file":
		r := io.lineReader()
		if r == nil {
			return Value{}, true, errors.NewTypeError("readline: file IO has no open handle")
		}
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil && line == "" {
			return Str(""), true, nil
		}
		return Str(line), true, nil
	case "buffer":
		s := io.Buf.String()
		line := s
		rest := ""
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			line, rest = s[:idx], s[idx+1:]
		}
		io.Buf.Reset()
		io.Buf.WriteString(rest)
		return Str(line), true, nil
	}
	return Value{}, true, errors.NewTypeError("readline: unsupported IO kind " + io.Kind)
}

// ioOpen implements open(path[, mode]) (default mode "r"), grounded on
// the original's mode-string table (`src/vm/builtins_io.rs`'s `Open`).
func (vm *Vm) ioOpen(args []Value) (Value, bool, error) {
	if len(args) < 1 || len(args) > 2 || args[0].Kind != KString {
		return Value{}, true, errors.NewTypeError("open requires a filename String")
	}
	path := args[0].S
	mode := "r"
	if len(args) == 2 {
		if args[1].Kind != KString {
			return Value{}, true, errors.NewTypeError("open: mode must be a String")
		}
		mode = args[1].S
	}
	flag, ok := openModeFlags[mode]
	if !ok {
		return Value{}, true, errors.NewErrorException(fmt.Sprintf("open: invalid mode %q", mode))
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return Value{}, true, errors.NewErrorException(fmt.Sprintf("open: failed to open %q: %v", path, err))
	}
	return Value{Kind: KIO, Io: &IOValue{Kind: "file", Path: path, File: f}}, true, nil
}
