package main

import "fmt"

const (
	exitCodeCanceled = 130

	// exitCodeConfig is returned when the process cannot start with the
	// supplied environment.
	exitCodeConfig = 78
)

type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func configError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitCodeConfig, err: err}
}
