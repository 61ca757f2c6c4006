// Package ir provides the declaration and descriptor types shared by every
// wirecontract package.
//
// This package contains type definitions plus canonical serialization. All
// other internal packages import ir; ir imports nothing internal.
//
// Two families of types live here:
//   - Declarations (ContractDecl, MethodDecl, ParamDecl, ...) describe a
//     service interface as written by its author.
//   - Descriptors (OperationDescriptor, ParameterDescriptor, FaultDescriptor)
//     are the wire-ready facts derived from a declaration. They are built
//     once and never mutated afterwards.
//
// Key design constraints:
//   - Absent optional strings are the empty string
//   - All JSON tags use snake_case
//   - Descriptor ordering always follows declaration order
package ir
