package zekta

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestRunSettledAllSucceed(t *testing.T) {
	ran := make([]bool, 3)
	tasks := make([]func() error, 3)
	for i := range tasks {
		tasks[i] = func() error {
			ran[i] = true
			return nil
		}
	}
	if err := runSettled(tasks); err != nil {
		t.Fatalf("runSettled failed: %v", err)
	}
	for i, ok := range ran {
		if !ok {
			t.Errorf("task %d did not run", i)
		}
	}
}

func TestRunSettledSingleFailure(t *testing.T) {
	boom := errors.New("boom")
	err := runSettled([]func() error{
		func() error { return nil },
		func() error { return boom },
		func() error { return nil },
	})
	if err != boom {
		t.Fatalf("expected the single error itself, got %v", err)
	}
}

func TestRunSettledAggregatesFailures(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := runSettled([]func() error{
		func() error { return first },
		func() error { return nil },
		func() error { return second },
	})

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected a multierror, got %T: %v", err, err)
	}
	if len(merr.Errors) != 2 {
		t.Fatalf("expected 2 wrapped errors, got %d", len(merr.Errors))
	}
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("aggregate does not match both failures: %v", err)
	}
}

func TestRunSettledRunsEveryTaskPastFailures(t *testing.T) {
	ran := make([]bool, 4)
	tasks := make([]func() error, 4)
	for i := range tasks {
		tasks[i] = func() error {
			ran[i] = true
			if i%2 == 0 {
				return errors.New("even task failed")
			}
			return nil
		}
	}
	_ = runSettled(tasks)
	for i, ok := range ran {
		if !ok {
			t.Errorf("task %d did not run", i)
		}
	}
}

func TestRunSettledEmpty(t *testing.T) {
	if err := runSettled(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
