package internal

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

const numTheBuiltins = int(ThePlatformVersion) + 1

// theBuiltinName returns the source spelling of a "the" builtin id, for
// disassembly hints and error messages.
func theBuiltinName(b TheBuiltin) string {
	if b < 0 || int(b) >= len(theBuiltinDisplay) {
		return "?"
	}
	return theBuiltinDisplay[b]
}

// defaultIntrinsics builds the default "the" builtin table. Every id is
// filled in, so a compiled script needs no embedding host to resolve its
// THE instructions; an embedding may still overwrite entries with
// SetIntrinsic.
func defaultIntrinsics() [numTheBuiltins]Intrinsic {
	var t [numTheBuiltins]Intrinsic
	t[TheMoviePath] = func(vm *VM) (Value, error) {
		if vm.MoviePath != "" {
			return vm.Heap.NewString(vm.MoviePath), nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return Void, err
		}
		return vm.Heap.NewString(wd), nil
	}
	t[TheFrame] = func(vm *VM) (Value, error) {
		return IntVal(vm.FrameNum), nil
	}
	t[TheDirSeparator] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(string(os.PathSeparator)), nil
	}
	t[TheMilliseconds] = func(vm *VM) (Value, error) {
		return IntVal(int32(time.Since(vm.start) / time.Millisecond)), nil
	}
	t[TheRandomSeed] = func(vm *VM) (Value, error) {
		return IntVal(vm.RandomSeed), nil
	}
	t[ThePlatform] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(platformName()), nil
	}
	t[TheDate] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(localeDate()), nil
	}
	t[TheTime] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(localeTime()), nil
	}
	t[TheLongTime] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(localeLongTime()), nil
	}
	t[ThePlatformVersion] = func(vm *VM) (Value, error) {
		return vm.Heap.NewString(platformVersion), nil
	}
	return t
}

func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Macintosh"
	case "windows":
		return "Windows"
	default:
		return runtime.GOOS
	}
}

// defaultBuiltins builds the host-function table dynamic CALLs fall back to
// when no script handler matches: constructors for the point and quad heap
// kinds and a few conversion helpers.
func defaultBuiltins() map[string]BuiltinFn {
	return map[string]BuiltinFn{
		"point": func(vm *VM, args []Value) (Value, error) {
			if len(args) != 2 {
				return Void, fmt.Errorf("point takes two coordinates")
			}
			x, xok := numAsFloat(args[0])
			y, yok := numAsFloat(args[1])
			if !xok || !yok {
				return Void, fmt.Errorf("point coordinates must be numbers")
			}
			return vm.Heap.NewPoint(x, y), nil
		},
		"quad": func(vm *VM, args []Value) (Value, error) {
			if len(args) != 8 {
				return Void, fmt.Errorf("quad takes eight coordinates")
			}
			var f [8]float64
			for i, a := range args {
				v, ok := numAsFloat(a)
				if !ok {
					return Void, fmt.Errorf("quad coordinates must be numbers")
				}
				f[i] = v
			}
			return vm.Heap.NewQuad(f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7]), nil
		},
		"string": func(vm *VM, args []Value) (Value, error) {
			if len(args) != 1 {
				return Void, fmt.Errorf("string takes one argument")
			}
			return vm.Heap.NewString(vm.Heap.Stringify(args[0])), nil
		},
		"integer": func(vm *VM, args []Value) (Value, error) {
			if len(args) != 1 {
				return Void, fmt.Errorf("integer takes one argument")
			}
			switch v := args[0]; v.Kind {
			case KInt:
				return v, nil
			case KFloat:
				return IntVal(int32(v.F)), nil
			default:
				return Void, fmt.Errorf("cannot convert a %s value to integer", v.Kind)
			}
		},
		"float": func(vm *VM, args []Value) (Value, error) {
			if len(args) != 1 {
				return Void, fmt.Errorf("float takes one argument")
			}
			f, ok := numAsFloat(args[0])
			if !ok {
				return Void, fmt.Errorf("cannot convert a %s value to float", args[0].Kind)
			}
			return FloatVal(f), nil
		},
	}
}
