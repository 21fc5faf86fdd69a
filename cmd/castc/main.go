// Command castc compiles Cast source to executable bytecode.
//
// Usage:
//
//	castc [-config file] [-S] [-run] input output
//
// A single "-" as input or output denotes the corresponding standard
// stream. By default the compiled program is written to output in its
// serialized binary form; -S writes its disassembly instead, and -run
// executes the program's main handler, directing its put output to output.
//
// Exit status is 0 on success, 1 on a diagnostic from any pipeline stage,
// and 2 on argument misuse. Diagnostics are printed to standard error as
// "error <line>:<column>: <message>".
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/castscript/cast"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "YAML config `file`")
	disasm := flag.Bool("S", false, "write disassembly instead of a serialized program")
	exec := flag.Bool("run", false, "execute the main handler instead of writing a program")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 {
		usage()
		return 2
	}

	cfg := &cast.Config{}
	if *configPath != "" {
		c, err := cast.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnose(err))
			return 1
		}
		cfg = c
	}

	in, close1, err := openInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnose(err))
		return 1
	}
	defer close1()
	out, close2, err := openOutput(flag.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnose(err))
		return 1
	}
	defer close2()

	chunks, err := cast.CompileBytecode(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnose(err))
		return 1
	}

	switch {
	case *disasm || cfg.EmitDisassembly:
		for _, c := range chunks {
			fmt.Fprint(out, cast.Disassemble(c))
		}
	case *exec:
		vm := cast.NewVM()
		if err := cfg.Apply(vm); err != nil {
			fmt.Fprintln(os.Stderr, diagnose(err))
			return 1
		}
		vm.Register(chunks...)
		vm.Out = out
		if _, err := vm.Call("main"); err != nil {
			fmt.Fprintln(os.Stderr, diagnose(err))
			return 1
		}
	default:
		if _, err := out.Write(cast.MarshalProgram(chunks)); err != nil {
			fmt.Fprintln(os.Stderr, diagnose(err))
			return 1
		}
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: castc [-config file] [-S] [-run] input output")
	flag.PrintDefaults()
}

func openInput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// diagnose formats any pipeline error in the driver's one-line diagnostic
// form. Errors without a source position report 0:0.
func diagnose(err error) string {
	switch e := err.(type) {
	case *cast.LexError:
		return fmt.Sprintf("error %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
	case *cast.ParseError:
		return fmt.Sprintf("error %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
	case *cast.GenError:
		return fmt.Sprintf("error %d:%d: %s", e.Pos.Line, e.Pos.Col, e.Msg)
	case *cast.RuntimeError:
		return fmt.Sprintf("error 0:0: %s in %s at instruction %d", e.Msg, e.Chunk, e.IP)
	default:
		return fmt.Sprintf("error 0:0: %v", err)
	}
}
