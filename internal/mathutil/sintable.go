package mathutil

import (
	"fmt"
	"io"
	"math"
)

// GenerateSineTable returns sin over [0, π/2] sampled n+1 times.
func GenerateSineTable(n int) []float64 {
	inc := HalfPi / float64(n)
	table := make([]float64, n+1)
	for i := range table {
		table[i] = math.Sin(inc * float64(i))
	}
	// math.Sin(π/2) is exactly 1 in float64, keep it that way for any n.
	table[n] = 1
	return table
}

// WriteSineTable emits the table as Go source, six values per line.
func WriteSineTable(w io.Writer, pkg string, n int) error {
	table := GenerateSineTable(n)
	if _, err := fmt.Fprintf(w, "package %s\n\nconst sinePer90Deg = %d\n\nvar sineTable = [sinePer90Deg + 1]float64{\n", pkg, n); err != nil {
		return err
	}
	for i := 0; i < len(table); {
		line := "\t"
		for j := 0; j < 6 && i < len(table); j, i = j+1, i+1 {
			line += fmt.Sprintf("%.8f, ", table[i])
		}
		if _, err := fmt.Fprintln(w, line[:len(line)-1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
