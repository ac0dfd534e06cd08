package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerWait(t *testing.T) {
	errBoom := errors.New("boom")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return errBoom }),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	aggregated, ok := err.(*AggregatedError)
	require.True(t, ok)
	// Cancellation is a clean stop, not a failure.
	require.Equal(t, []error{errBoom}, aggregated.Errors)
}

func TestRunnerWaitClean(t *testing.T) {
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return nil }),
	)
	require.NoError(t, r.Wait())
}

func TestRunWithContextCancel(t *testing.T) {
	done := make(chan struct{})
	var canceled bool
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithContextCancel(ctx, func() {
		canceled = true
		close(done)
	}, func() error {
		<-done
		return errors.New("ignored after cancel")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, canceled)
}

func TestRunWithContextCancelPassthrough(t *testing.T) {
	errExit := errors.New("exit")
	err := RunWithContextCancel(context.Background(), nil, func() error {
		return errExit
	})
	require.ErrorIs(t, err, errExit)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())

	errs.Add(nil, errors.New("one"), nil, errors.New("two"))
	err := errs.Aggregate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Multiple errors:")
	require.Contains(t, err.Error(), "one")
	require.Contains(t, err.Error(), "two")
}
