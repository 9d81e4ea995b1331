package checks

import (
	"fmt"
	"math"
)

func absf(x float64) float64 {
	return math.Abs(x)
}

// formatFloat renders an explanation value with the analytics wire
// format's six-decimal convention.
func formatFloat(x float64) string {
	return fmt.Sprintf("%.6f", x)
}
