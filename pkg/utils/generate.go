package utils

import (
	"fmt"
	"math/rand"
)

// CodeWidth is the number of digits in customer and booking codes.
const CodeWidth = 6

// GenerateNumericCode returns a zero-padded random decimal string of the
// given width. Width <= 0 falls back to CodeWidth.
func GenerateNumericCode(width int) string {
	if width <= 0 {
		width = CodeWidth
	}

	space := 1
	for i := 0; i < width; i++ {
		space *= 10
	}

	return fmt.Sprintf("%0*d", width, rand.Intn(space))
}
