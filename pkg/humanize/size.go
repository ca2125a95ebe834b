package humanize

import "fmt"

var units = []string{"B", "KB", "MB", "GB", "TB"}

// Bytes renders a byte count with a binary unit, "512B", "1.50MB".
func Bytes(i int64) string {
	if i < 1024 {
		return fmt.Sprintf("%dB", i)
	}

	v := float64(i)
	u := 0

	for v >= 1024 && u < len(units)-1 {
		v /= 1024
		u++
	}

	return fmt.Sprintf("%.2f%s", v, units[u])
}
