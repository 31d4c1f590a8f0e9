package zekta

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// runSettled executes every task concurrently and waits for all of them to
// finish regardless of individual failures. It returns nil when every task
// succeeded, the error itself when exactly one failed, and a multierror
// carrying every failure otherwise.
func runSettled(tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = task()
		}()
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	default:
		return multierror.Append(nil, failed...)
	}
}
