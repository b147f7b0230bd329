package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// Frame is a rendered output table: flat column names and positional cells.
// Cells are nil, string, int, float64 or time.Time.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// FormatCell renders a cell the way exports write it. Null is the empty string.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case time.Time:
		return c.Format(time.DateOnly)
	default:
		return fmt.Sprint(c)
	}
}

// Fingerprint hashes column names and cells. Equal frames hash equally, which
// is how reruns over unchanged inputs are checked for identical output.
func (f Frame) Fingerprint() uint64 {
	h := xxh3.New()
	for _, c := range f.Columns {
		_, _ = h.WriteString(c)
		_, _ = h.Write([]byte{0x1f})
	}
	_, _ = h.Write([]byte{0x1e})
	for _, row := range f.Rows {
		for _, cell := range row {
			if cell == nil {
				_, _ = h.Write([]byte{0x00})
			} else {
				_, _ = h.WriteString(fmt.Sprintf("%T:", cell))
				_, _ = h.WriteString(FormatCell(cell))
			}
			_, _ = h.Write([]byte{0x1f})
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return h.Sum64()
}
