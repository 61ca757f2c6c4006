package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wirecontract/internal/compiler"
)

func TestLoadSpecs_SharedFixtures(t *testing.T) {
	result, errs := LoadSpecs(testSpecsDir, LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.FileCount)

	names := make([]string, 0, len(result.Contracts))
	for _, c := range result.Contracts {
		names = append(names, c.Context.Name)
	}
	assert.ElementsMatch(t, []string{"ICalculator", "IStockService"}, names)
}

func TestLoadSpecs_FailFastStopsAtFirstError(t *testing.T) {
	tmpDir := t.TempDir()
	writeSpec(t, tmpDir, "bad.cue", `
package test

contract: IOne: operation: A: params: [{name: "x"}]
contract: ITwo: operation: B: params: [{name: "y"}]
`)

	result, errs := LoadSpecs(tmpDir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)

	result, errs = LoadSpecs(tmpDir, LoadModeFailFast)
	require.NotNil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, compiler.ErrParameterTypeEmpty, loadErr.Code)
}

func TestLoadSpecs_NotADirectory(t *testing.T) {
	result, errs := LoadSpecs("loader.go", LoadModeCollectAll)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not a directory")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"cue", ErrCodeSchema},
		{"contract", ErrCodeNoContracts},
		{"name", compiler.ErrContractNameEmpty},
		{"operation", compiler.ErrContractNoOperations},
		{"operation.Add.params[1].type", compiler.ErrParameterTypeEmpty},
		{"operation.Add.faults[0].detail", compiler.ErrFaultDetailEmpty},
		{"operation.Add.returns.type", ErrCodeGeneric},
		{"", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
