package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainOperation   = "wirecontract/operation/v1"
	DomainDeclaration = "wirecontract/declaration/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DescriptorHash computes the content-addressed fingerprint of a descriptor.
// Two descriptors built from identical declarations hash identically.
func DescriptorHash(op *OperationDescriptor) (string, error) {
	canonical, err := MarshalCanonical(op)
	if err != nil {
		return "", fmt.Errorf("DescriptorHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOperation, canonical), nil
}

// DeclarationHash computes the fingerprint of a compiled contract declaration.
func DeclarationHash(decl ContractDecl) (string, error) {
	canonical, err := MarshalCanonical(decl)
	if err != nil {
		return "", fmt.Errorf("DeclarationHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeclaration, canonical), nil
}

// MustDescriptorHash is like DescriptorHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDescriptorHash(op *OperationDescriptor) string {
	h, err := DescriptorHash(op)
	if err != nil {
		panic(err)
	}
	return h
}
