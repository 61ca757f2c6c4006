package ir

// Version constants for the descriptor schema and builder.
const (
	// IRVersion is the descriptor schema version.
	IRVersion = "1"

	// BuilderVersion is the wirecontract builder version.
	BuilderVersion = "0.1.0"
)

// DefaultNamespace is the contract namespace used when a declaration omits one.
const DefaultNamespace = "http://tempuri.org/"
