package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimatingCounter(t *testing.T) {
	counter := NewEstimatingCounter()
	tests := []struct {
		input string
		want  int
	}{
		{"", 1},
		{"hi", 1},
		{"test", 1},
		{"testing", 1},
		{"testing!", 2},
		{"The quick brown fox jumps over the lazy dog.", 11},
		{string(make([]byte, 100)), 25},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, counter.Count(tt.input), "Count(%q)", tt.input)
	}
}

func TestEstimateCountsCharacters(t *testing.T) {
	// eight runes, twenty-four bytes
	require.Equal(t, 2, Estimate("你好世界你好世界"))
}

func TestEstimateRoundsDown(t *testing.T) {
	require.Equal(t, 2, Estimate("abcdefghi"))
	require.Equal(t, 2, Estimate("abcdefghijk"))
	require.Equal(t, 3, Estimate("abcdefghijkl"))
	require.Equal(t, 1, Estimate("abc"))
}

func TestSum(t *testing.T) {
	require.Equal(t, 0, Sum(NewEstimatingCounter()))
	require.Equal(t, 4, Sum(NewEstimatingCounter(), "", "abcdefgh", "x"))
}

var benchInput = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 100)

func BenchmarkEstimatingCounter(b *testing.B) {
	counter := NewEstimatingCounter()
	b.ResetTimer()
	for b.Loop() {
		counter.Count(benchInput)
	}
}
