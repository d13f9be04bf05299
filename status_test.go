package minhook

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k2io/minhook/engine"
)

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status engine.Status
		want   error
	}{
		{engine.StatusAlreadyInitialized, ErrAlreadyInitialized},
		{engine.StatusNotInitialized, ErrNotInitialized},
		{engine.StatusAlreadyCreated, ErrAlreadyCreated},
		{engine.StatusNotCreated, ErrNotCreated},
		{engine.StatusEnabled, ErrAlreadyEnabled},
		{engine.StatusDisabled, ErrAlreadyDisabled},
		{engine.StatusNotExecutable, ErrNotExecutable},
		{engine.StatusUnsupportedFunction, ErrUnsupportedFunction},
		{engine.StatusMemoryAlloc, ErrMemoryAlloc},
		{engine.StatusMemoryProtect, ErrMemoryProtect},
		{engine.StatusModuleNotFound, ErrModuleNotFound},
		{engine.StatusFunctionNotFound, ErrFunctionNotFound},
		{engine.StatusUnknown, ErrUnknown},
		{engine.Status(99), ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := statusError(opEnable, engine.AddressOf(0x10000), tt.status)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, StatusOf(err))
			for _, other := range statusErrors {
				if other != tt.want {
					assert.NotErrorIs(t, err, other)
				}
			}
		})
	}
	// every known failure has its own error
	assert.Len(t, statusErrors, len(tests)-1)
}

func TestStatusErrorMessage(t *testing.T) {
	err := statusError(opEnable, engine.AddressOf(0x10000), engine.StatusEnabled)
	assert.EqualError(t, err, "minhook: enable 0x10000: hook already enabled")

	err = statusError(opApplyQueued, engine.Nil, engine.StatusMemoryProtect)
	assert.EqualError(t, err, "minhook: apply_queued: memory protection change failed")
}

func TestStatusOf(t *testing.T) {
	assert.NoError(t, statusError(opCreate, engine.Nil, engine.StatusOK))
	assert.Equal(t, engine.StatusOK, StatusOf(nil))
	assert.Equal(t, engine.StatusUnknown, StatusOf(errors.New("boom")))

	wrapped := fmt.Errorf("startup: %w", statusError(opCreate, engine.Nil, engine.StatusNotExecutable))
	assert.Equal(t, engine.StatusNotExecutable, StatusOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrNotExecutable)
}
