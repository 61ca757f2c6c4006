package operation

import (
	"fmt"
	"strings"

	"github.com/roach88/wirecontract/internal/ir"
)

// FaultPolicy decides how a method with several faults of the same name is
// treated.
type FaultPolicy string

const (
	// FaultPolicyPassThrough keeps every declared fault, duplicates included.
	FaultPolicyPassThrough FaultPolicy = "pass-through"
	// FaultPolicyReject fails the build when two faults share a name.
	FaultPolicyReject FaultPolicy = "reject"
	// FaultPolicyMerge keeps only the first fault declared under each name.
	FaultPolicyMerge FaultPolicy = "merge"
)

// FaultPolicies lists the accepted policy names.
var FaultPolicies = []FaultPolicy{FaultPolicyPassThrough, FaultPolicyReject, FaultPolicyMerge}

// ParseFaultPolicy parses a policy name. The empty string selects
// FaultPolicyPassThrough.
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	if s == "" {
		return FaultPolicyPassThrough, nil
	}
	for _, p := range FaultPolicies {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown fault policy %q: must be one of %v", s, FaultPolicies)
}

// BuildFault builds the descriptor for one fault-contract annotation.
// Name and ElementName share the explicit name but default differently.
func BuildFault(decl ir.FaultDecl) ir.FaultDescriptor {
	return ir.FaultDescriptor{
		PayloadType: decl.Detail,
		Namespace:   decl.Namespace,
		Name:        firstNonEmpty(decl.Name, decl.Detail.Name+"Fault"),
		ElementName: firstNonEmpty(decl.Name, decl.Detail.Name),
		Action:      decl.Action,
	}
}

// buildFaults builds every declared fault in order and applies policy.
func buildFaults(decls []ir.FaultDecl, policy FaultPolicy) ([]ir.FaultDescriptor, error) {
	faults := make([]ir.FaultDescriptor, 0, len(decls))
	seen := make(map[string]bool, len(decls))

	for i, decl := range decls {
		f := BuildFault(decl)
		if seen[f.Name] {
			switch policy {
			case FaultPolicyReject:
				return nil, &ConfigurationError{
					Field:   fmt.Sprintf("faults[%d]", i),
					Message: fmt.Sprintf("duplicate fault name %q", f.Name),
				}
			case FaultPolicyMerge:
				continue
			}
		}
		seen[f.Name] = true
		faults = append(faults, f)
	}

	return faults, nil
}
