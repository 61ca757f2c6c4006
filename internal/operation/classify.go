package operation

import (
	"fmt"

	"github.com/roach88/wirecontract/internal/ir"
)

// ClassifyDirection maps a parameter's output-only and by-reference flags to
// its transmission direction.
//
//	isOut  isByRef  direction
//	false  false    InOnly
//	true   true     OutOnlyRef
//	false  true     InAndOutRef
//	true   false    invalid
func ClassifyDirection(isOut, isByRef bool) (ir.Direction, error) {
	switch {
	case !isOut && !isByRef:
		return ir.DirectionInOnly, nil
	case isOut && isByRef:
		return ir.DirectionOutOnlyRef, nil
	case !isOut && isByRef:
		return ir.DirectionInAndOutRef, nil
	default:
		return "", &ConfigurationError{
			Field:   "direction",
			Message: "output-only parameter must be passed by reference",
		}
	}
}

// ResolveWireName returns the element name a parameter is serialized under.
func ResolveWireName(p ir.ParamDecl) string {
	var wrapper string
	if p.Type.MessageContract {
		wrapper = p.Type.WrapperName
	}
	return firstNonEmpty(p.ElementName, p.MessageName, wrapper, p.Name)
}

// ResolveWireNamespace returns the namespace a parameter is serialized under.
func ResolveWireNamespace(p ir.ParamDecl, contract *ir.ContractContext) string {
	return firstNonEmpty(p.ElementNamespace, contract.Namespace)
}

// ClassifyParameter builds the descriptor for the parameter declared at index.
func ClassifyParameter(p ir.ParamDecl, index int, contract *ir.ContractContext) (ir.ParameterDescriptor, error) {
	dir, err := ClassifyDirection(p.IsOut, p.IsByRef)
	if err != nil {
		return ir.ParameterDescriptor{}, &ConfigurationError{
			Parameter: p.Name,
			Field:     "direction",
			Message:   fmt.Sprintf("output-only parameter of type %s must be passed by reference", p.Type.Name),
		}
	}

	return ir.ParameterDescriptor{
		Index:         index,
		Direction:     dir,
		WireName:      ResolveWireName(p),
		WireNamespace: ResolveWireNamespace(p, contract),
		Param:         p,
	}, nil
}

// firstNonEmpty returns the first non-empty value, or "" if all are empty.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
