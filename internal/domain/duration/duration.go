// Package duration compares produced media lengths against a target and drives
// the bounded synthesis retry.
package duration

import (
	"errors"
	"time"
)

const (
	DefaultTolerance   = 100 * time.Millisecond
	DefaultMaxAttempts = 3
)

// Check reports whether actual lies strictly within tol of target.
func Check(actual, target, tol time.Duration) (bool, time.Duration) {
	diff := actual - target
	if diff < 0 {
		diff = -diff
	}
	return diff < tol, actual
}

// Outcome is the result of a Fold. Value comes from the first attempt that
// passed, or from the last attempt when none did.
type Outcome[T any] struct {
	Value   T
	Attempt int
	Actual  time.Duration
	Passed  bool
}

var ErrNoAttempts = errors.New("duration: max attempts must be > 0")

// Fold runs attempt for i = 1..maxAttempts, stopping at the first candidate
// within tol of target. Each attempt returns its candidate and the duration it
// achieved. An attempt error ends the fold immediately.
func Fold[T any](maxAttempts int, target, tol time.Duration, attempt func(i int) (T, time.Duration, error)) (Outcome[T], error) {
	if maxAttempts <= 0 {
		return Outcome[T]{}, ErrNoAttempts
	}
	return step(1, maxAttempts, target, tol, attempt)
}

func step[T any](i, maxAttempts int, target, tol time.Duration, attempt func(i int) (T, time.Duration, error)) (Outcome[T], error) {
	v, actual, err := attempt(i)
	if err != nil {
		return Outcome[T]{Attempt: i}, err
	}
	passed, _ := Check(actual, target, tol)
	out := Outcome[T]{Value: v, Attempt: i, Actual: actual, Passed: passed}
	if passed || i == maxAttempts {
		return out, nil
	}
	return step(i+1, maxAttempts, target, tol, attempt)
}
