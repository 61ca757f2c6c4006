// Package operation derives wire-ready operation descriptors from method
// declarations.
//
// The package is a pure, synchronous transform: it performs no I/O, holds
// no shared state and never logs. Every builder may be called concurrently.
// Construction is atomic: either a complete descriptor is returned or a
// *ConfigurationError explains which declaration must be fixed.
//
// Precedence rules are expressed as ordered fallbacks (firstNonEmpty) so the
// ordering is visible at the call site:
//
//	wire name      = element name > message name > type wrapper name > identifier
//	wire namespace = element namespace > contract namespace
//	operation name = operation annotation name > method identifier
//	soap action    = operation annotation action > "{ns}/{contract}/{name}"
package operation
