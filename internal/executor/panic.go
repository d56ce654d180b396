package executor

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rezkam/mono/internal/domain"
)

// PanicError indicates the post callback panicked instead of returning
// normally. Adapted from the worker package's panic-to-error conversion;
// a callback panic is handled like any other failed callback result: the
// job is retried while its retry budget remains and fails once it is
// exhausted.
type PanicError struct {
	Value      any
	StackTrace string
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsPanic reports whether err wraps a PanicError.
func IsPanic(err error) bool {
	var panicErr PanicError
	return errors.As(err, &panicErr)
}

// invokeCallback runs cb under panic recovery, converting any panic into a
// PanicError so the outcome step can treat it like any other failed
// PostResult.
func invokeCallback(cb domain.PostCallback, accountID, content string) (result domain.PostResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r, StackTrace: string(debug.Stack())}
			result = domain.PostResult{OK: false}
		}
	}()
	return cb(accountID, content)
}
