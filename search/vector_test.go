package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
		want  []float32
	}{
		{"already unit", []float32{1, 0, 0}, []float32{1, 0, 0}},
		{"scaled", []float32{3, 4}, []float32{0.6, 0.8}},
		{"zero vector", []float32{0, 0}, []float32{0, 0}},
		{"empty", []float32{}, []float32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, NormalizeVector(tt.input), 1e-6)
		})
	}
}

func TestNormalizeVector_DoesNotMutate(t *testing.T) {
	input := []float32{3, 4}
	_ = NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}
