package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectedError(t *testing.T) {
	err := &RejectedError{Message: "Need at least 50 examples"}
	assert.Equal(t, "Need at least 50 examples", err.Error())
}

func TestErrorTypeDetection(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantRejected bool
	}{
		{"RejectedError", &RejectedError{Message: "too small"}, true},
		{"regular error", errors.New("config error"), false},
		{"wrapped RejectedError", fmt.Errorf("ingest: %w", &RejectedError{Message: "too small"}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rejected *RejectedError
			assert.Equal(t, tt.wantRejected, errors.As(tt.err, &rejected))
		})
	}
}
