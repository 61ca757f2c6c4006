package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/wirecontract/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// CompileContract parses a CUE value into a ContractDecl.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the contract struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`contract: ICalculator: { ... }`)
//	decl, err := CompileContract(v.LookupPath(cue.ParsePath("contract.ICalculator")))
//
// Types referenced by parameters, returns and faults resolve against the
// contract's types block; names not listed there are plain types.
func CompileContract(v cue.Value) (*ir.ContractDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := checkSchema(v); err != nil {
		return nil, err
	}

	decl := &ir.ContractDecl{}

	var label string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		label = selectorLabel(sels[len(sels)-1])
	}

	name, err := lookupString(v, "name")
	if err != nil {
		return nil, err
	}
	decl.Context.Name = firstNonEmpty(name, label)
	if decl.Context.Name == "" {
		return nil, &CompileError{Field: "name", Message: "contract name is required", Pos: v.Pos()}
	}

	ns, err := lookupString(v, "namespace")
	if err != nil {
		return nil, err
	}
	decl.Context.Namespace = firstNonEmpty(ns, ir.DefaultNamespace)

	types, err := parseTypes(v)
	if err != nil {
		return nil, err
	}

	decl.Methods, err = parseOperations(v, types)
	if err != nil {
		return nil, err
	}
	if len(decl.Methods) == 0 {
		return nil, &CompileError{
			Field:   "operation",
			Message: "at least one operation is required",
			Pos:     v.Pos(),
		}
	}

	return decl, nil
}

// selectorLabel returns the field name of sel without CUE quoting.
func selectorLabel(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel && sel.ConstraintType() < cue.PatternConstraint {
		return sel.Unquoted()
	}
	return sel.String()
}

// checkSchema unifies v with the closed #Contract definition.
func checkSchema(v cue.Value) error {
	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling declaration schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Contract"))
	if err := def.Unify(v).Validate(); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// parseTypes reads the types block into a lookup table.
func parseTypes(v cue.Value) (map[string]ir.TypeRef, error) {
	types := make(map[string]ir.TypeRef)

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return types, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		t := ir.TypeRef{Name: iter.Label()}
		if t.MessageContract, err = lookupBool(iter.Value(), "message_contract"); err != nil {
			return nil, err
		}
		if t.WrapperName, err = lookupString(iter.Value(), "wrapper_name"); err != nil {
			return nil, err
		}
		types[t.Name] = t
	}

	return types, nil
}

// parseOperations extracts method declarations in declaration order.
func parseOperations(v cue.Value, types map[string]ir.TypeRef) ([]ir.MethodDecl, error) {
	var methods []ir.MethodDecl

	opsVal := v.LookupPath(cue.ParsePath("operation"))
	if !opsVal.Exists() {
		return methods, nil
	}

	iter, err := opsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		method, err := parseOperation(iter.Label(), iter.Value(), types)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	return methods, nil
}

func parseOperation(name string, v cue.Value, types map[string]ir.TypeRef) (ir.MethodDecl, error) {
	method := ir.MethodDecl{
		Name:   name,
		Params: []ir.ParamDecl{},
		Faults: []ir.FaultDecl{},
	}
	field := "operation." + name

	var err error
	if method.Operation.Name, err = lookupString(v, "name"); err != nil {
		return method, err
	}
	if method.Operation.Action, err = lookupString(v, "action"); err != nil {
		return method, err
	}
	if method.Operation.ReplyAction, err = lookupString(v, "reply_action"); err != nil {
		return method, err
	}
	if method.Operation.IsOneWay, err = lookupBool(v, "one_way"); err != nil {
		return method, err
	}

	// Parse params (optional, order preserved)
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		list, err := paramsVal.List()
		if err != nil {
			return method, formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			p, err := parseParam(fmt.Sprintf("%s.params[%d]", field, i), list.Value(), types)
			if err != nil {
				return method, err
			}
			method.Params = append(method.Params, p)
		}
	}

	// Parse returns (optional, absent means void)
	returnsVal := v.LookupPath(cue.ParsePath("returns"))
	if returnsVal.Exists() {
		typeName, err := requireString(returnsVal, "type", field+".returns.type")
		if err != nil {
			return method, err
		}
		method.Return.Type = resolveType(typeName, types)
		if method.Return.Name, err = lookupString(returnsVal, "name"); err != nil {
			return method, err
		}
	}

	// Parse faults (optional, order preserved)
	faultsVal := v.LookupPath(cue.ParsePath("faults"))
	if faultsVal.Exists() {
		list, err := faultsVal.List()
		if err != nil {
			return method, formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			f, err := parseFault(fmt.Sprintf("%s.faults[%d]", field, i), list.Value(), types)
			if err != nil {
				return method, err
			}
			method.Faults = append(method.Faults, f)
		}
	}

	return method, nil
}

func parseParam(field string, v cue.Value, types map[string]ir.TypeRef) (ir.ParamDecl, error) {
	var p ir.ParamDecl
	var err error

	if p.Name, err = requireString(v, "name", field+".name"); err != nil {
		return p, err
	}
	typeName, err := requireString(v, "type", field+".type")
	if err != nil {
		return p, err
	}
	p.Type = resolveType(typeName, types)

	if p.IsOut, err = lookupBool(v, "out"); err != nil {
		return p, err
	}
	if p.IsByRef, err = lookupBool(v, "ref"); err != nil {
		return p, err
	}
	if p.ElementName, err = lookupString(v, "element_name"); err != nil {
		return p, err
	}
	if p.ElementNamespace, err = lookupString(v, "element_namespace"); err != nil {
		return p, err
	}
	if p.MessageName, err = lookupString(v, "message_name"); err != nil {
		return p, err
	}
	return p, nil
}

func parseFault(field string, v cue.Value, types map[string]ir.TypeRef) (ir.FaultDecl, error) {
	var f ir.FaultDecl

	detail, err := requireString(v, "detail", field+".detail")
	if err != nil {
		return f, err
	}
	f.Detail = resolveType(detail, types)

	if f.Name, err = lookupString(v, "name"); err != nil {
		return f, err
	}
	if f.Namespace, err = lookupString(v, "namespace"); err != nil {
		return f, err
	}
	if f.Action, err = lookupString(v, "action"); err != nil {
		return f, err
	}
	return f, nil
}

// resolveType returns the declared type for name, or a plain type.
func resolveType(name string, types map[string]ir.TypeRef) ir.TypeRef {
	if t, ok := types[name]; ok {
		return t
	}
	return ir.TypeRef{Name: name}
}

// lookupString returns the concrete string at path, or "" when the field is
// absent or not concrete.
func lookupString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() || !val.IsConcrete() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// lookupBool returns the concrete bool at path, or false when absent.
func lookupBool(v cue.Value, path string) (bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() || !val.IsConcrete() {
		return false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// requireString is lookupString for fields that must be present and non-empty.
func requireString(v cue.Value, path, field string) (string, error) {
	s, err := lookupString(v, path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &CompileError{Field: field, Message: path + " is required", Pos: v.Pos()}
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
