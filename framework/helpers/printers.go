package helpers

import (
	"fmt"
	"io"
)

// MustFprintf writes with fmt.Fprintf and panics on a write error, so that
// callers producing console or HTTP response output do not need an error
// check on every line.
func MustFprintf(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		panic(err)
	}
}
