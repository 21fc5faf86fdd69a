package cast

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Config carries the compiler and VM options the castc driver reads from a
// YAML file. The zero value is a usable default.
type Config struct {
	// EmitDisassembly makes the driver write disassembly text instead of a
	// serialized program.
	EmitDisassembly bool `yaml:"emitDisassembly"`

	// Trace makes the VM write each instruction to standard error before
	// executing it.
	Trace bool `yaml:"trace"`

	// Globals seeds the VM's global map before any handler runs, so a
	// script may assume pre-set globals without a driver program. Values
	// may be integers, floats, booleans, or strings.
	Globals map[string]interface{} `yaml:"globals"`
}

// LoadConfig reads and decodes a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("cast: config %s: %w", path, err)
	}
	return &cfg, nil
}

// Apply configures vm per cfg, converting each seeded global to the VM's
// value model.
func (cfg *Config) Apply(vm *VM) error {
	vm.Trace = cfg.Trace
	for name, raw := range cfg.Globals {
		v, err := convertGlobal(vm, raw)
		if err != nil {
			return fmt.Errorf("cast: config global %q: %w", name, err)
		}
		vm.SetGlobal(name, v)
	}
	return nil
}

func convertGlobal(vm *VM, raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Void, nil
	case bool:
		if x {
			return IntVal(1), nil
		}
		return IntVal(0), nil
	case int:
		return IntVal(int32(x)), nil
	case float64:
		return FloatVal(x), nil
	case string:
		return vm.Heap.NewString(x), nil
	default:
		return Void, fmt.Errorf("unsupported value type %T", raw)
	}
}
