package catalog

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/hookchain/internal/value"
)

// FeatureSet reports whether a named companion component is present in the
// current host build. Function availability predicates are bound to it.
type FeatureSet func(name string) bool

// fileCatalog is the TOML shape of a catalog definition:
//
//	version = 1
//
//	[[function]]
//	id = 1
//	name = "EntitySetHealth"
//	args = ["entity", "float"]
//	return = "int"
//	requires = "gamedll"
type fileCatalog struct {
	Version   int            `toml:"version"`
	Functions []fileFunction `toml:"function"`
}

type fileFunction struct {
	ID       int32    `toml:"id"`
	Name     string   `toml:"name"`
	Args     []string `toml:"args"`
	Return   string   `toml:"return"`
	Requires string   `toml:"requires"`
}

// LoadFile reads a TOML catalog definition from path. features supplies the
// availability predicate for functions declaring a requirement; nil means
// every requirement is considered met.
func LoadFile(path string, features FeatureSet) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}
	return Parse(data, features)
}

// Parse builds a catalog from TOML data.
func Parse(data []byte, features FeatureSet) (*Static, error) {
	var file fileCatalog
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	funcs := make([]*Function, 0, len(file.Functions))
	for _, ff := range file.Functions {
		f, err := ff.build(features)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, f)
	}

	return NewStatic(funcs)
}

func (ff fileFunction) build(features FeatureSet) (*Function, error) {
	ret, err := parseKind(ff.Return)
	if err != nil {
		return nil, fmt.Errorf("function %q return: %w", ff.Name, err)
	}

	args := make([]value.Kind, len(ff.Args))
	for i, s := range ff.Args {
		k, err := parseKind(s)
		if err != nil {
			return nil, fmt.Errorf("function %q argument %d: %w", ff.Name, i, err)
		}
		args[i] = k
	}

	f := &Function{
		ID:       FuncID(ff.ID),
		Name:     ff.Name,
		Args:     args,
		Return:   ret,
		Requires: ff.Requires,
	}
	if ff.Requires != "" {
		requires := ff.Requires
		f.Available = func() bool {
			return features == nil || features(requires)
		}
	}
	return f, nil
}

// parseKind maps a TOML kind name to a value.Kind.
func parseKind(s string) (value.Kind, error) {
	switch s {
	case "int":
		return value.KindInt, nil
	case "float":
		return value.KindFloat, nil
	case "string":
		return value.KindString, nil
	case "class":
		return value.KindClass, nil
	case "entity":
		return value.KindEntity, nil
	case "data":
		return value.KindData, nil
	default:
		return value.KindInvalid, fmt.Errorf("unknown kind %q: %w", s, ErrBadSignature)
	}
}
