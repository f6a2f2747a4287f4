package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Dataset accepted
	ExitRejected = 1 // Dataset parsed but was rejected
	ExitError    = 2 // Configuration or runtime error
)

// RejectedError indicates that the dataset was read successfully but
// cannot be used for fine-tuning.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			os.Exit(ExitRejected)
		}

		os.Exit(ExitError)
	}
}
