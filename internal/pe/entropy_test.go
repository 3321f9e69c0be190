package pe

import (
	"math"
	"testing"
)

func TestCalculateEntropy(t *testing.T) {
	uniform := make([]byte, 256)
	for i := range uniform {
		uniform[i] = byte(i)
	}

	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{
			name: "empty data",
			data: nil,
			want: 0.0,
		},
		{
			name: "single byte",
			data: []byte{0x42},
			want: 0.0,
		},
		{
			name: "repeated byte has zero entropy",
			data: []byte{0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC},
			want: 0.0,
		},
		{
			name: "two values split evenly",
			data: []byte{0x00, 0xFF, 0x00, 0xFF},
			want: 1.0,
		},
		{
			name: "every byte value once is maximal",
			data: uniform,
			want: 8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEntropy(tt.data)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateEntropy() = %v, want %v", got, tt.want)
			}
		})
	}
}
