// Package harness provides conformance testing for service contract
// declarations.
//
// The harness compiles CUE contract declarations, builds every operation
// descriptor, catalogs them in a fresh store and checks the result against
// the expectations of a scenario.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - path/to/calculator.cue
//	fault_policy: merge          # optional: pass-through | reject | merge
//	operations:
//	  - operation: ICalculator.Add
//	    expect:
//	      action: http://tempuri.org/ICalculator/Add
//	      return_name: AddResult
//	      request_wrapped: false
//	      in: [a, b]
//	      faults: [ValidationFaultFault]
//	assertions:
//	  - type: action_routes
//	    action: http://tempuri.org/ICalculator/Add
//	    operation: ICalculator.Add
//	  - type: operation_count
//	    count: 4
//
// A scenario may instead declare that building must fail:
//
//	expect_error:
//	  code: E131
//	  contains: duplicate fault
//
// Operations are addressed as <Contract>.<Operation>, where Operation is the
// descriptor's wire name.
//
// # Assertion Types
//
//   - operation_count: exactly N operations were built
//   - action_routes: the catalog routes an action string to an operation
//   - fault_present: an operation declares a fault with the given name
//   - parameter_direction: a parameter was classified with the given direction
//
// # Golden Snapshots
//
// RunWithGolden serializes every descriptor with canonical JSON and compares
// the result against testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
