package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "validation failed at index 2: frequency must be >= 3", (&ValidationError{Index: 2, Reason: "frequency must be >= 3"}).Error())
	assert.Equal(t, "validation failed: symbol not resolved", (&ValidationError{Index: -1, Reason: "symbol not resolved"}).Error())
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("tick BTC_USDT_1h: %w", &FetchError{Op: "candles", Err: base})

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "candles", fetchErr.Op)
	assert.ErrorIs(t, err, base)
}

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: &ValidationError{Index: 0, Reason: "x"}, want: "validation"},
		{name: "fetch", err: &FetchError{Op: "contracts", Err: assert.AnError}, want: "fetch"},
		{name: "order", err: fmt.Errorf("wrapped: %w", &OrderError{Symbol: "ETH_USDT", Err: assert.AnError}), want: "order"},
		{name: "notify", err: &NotifyError{Err: assert.AnError}, want: "notify"},
		{name: "other", err: assert.AnError, want: "internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Kind(tc.err))
		})
	}
}
