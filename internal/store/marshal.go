package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/wirecontract/internal/ir"
)

// marshalDescriptor converts a descriptor to canonical JSON TEXT for storage
// and returns it together with its fingerprint.
func marshalDescriptor(op *ir.OperationDescriptor) (string, string, error) {
	data, err := ir.MarshalCanonical(op)
	if err != nil {
		return "", "", fmt.Errorf("marshal descriptor: %w", err)
	}
	hash, err := ir.DescriptorHash(op)
	if err != nil {
		return "", "", fmt.Errorf("marshal descriptor: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalDescriptor parses canonical JSON TEXT back into a descriptor.
// Rows that do not match the descriptor schema are rejected before decoding.
func unmarshalDescriptor(data string) (*ir.OperationDescriptor, error) {
	if err := ir.ValidateDescriptorJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	var op ir.OperationDescriptor
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return &op, nil
}
