package drill

import (
	"fmt"
	"math"
)

// FormatDepth renders a depth in metres as whole millimetres.
func FormatDepth(depth float64) string {
	return fmt.Sprintf("%d mm", int(math.Round(depth*1000)))
}
