package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/wirecontract/internal/ir"
)

// Load builds the CUE instance named by args, resolved against dir.
// args are either package patterns (".") or .cue file paths; an empty dir
// means the working directory.
func Load(dir string, args ...string) (cue.Value, error) {
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded")
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}
	return value, nil
}

// CompileContracts compiles every contract under the top-level "contract"
// field, in declaration order. A contract that fails to compile is skipped
// and its error collected; the label is prefixed to the error.
func CompileContracts(v cue.Value) ([]*ir.ContractDecl, []error) {
	contracts := v.LookupPath(cue.ParsePath("contract"))
	if !contracts.Exists() {
		return nil, []error{&CompileError{Field: "contract", Message: "no contracts declared", Pos: v.Pos()}}
	}

	iter, err := contracts.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var decls []*ir.ContractDecl
	var errs []error
	for iter.Next() {
		decl, err := CompileContract(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("contract.%s: %w", iter.Label(), err))
			continue
		}
		decls = append(decls, decl)
	}
	return decls, errs
}
