package dynamo

import (
	"fmt"
	"io"
	"strings"
)

const printWidth = 60

// PrintHeader opens a diagnostic block. Nothing is written unless decorated.
func PrintHeader(w io.Writer, title string, decorated bool) {
	if !decorated {
		return
	}
	pad := max(printWidth-len(title)-2, 2)
	left := pad / 2
	fmt.Fprintf(w, "%s %s %s\n", strings.Repeat("-", left), title, strings.Repeat("-", pad-left))
}

// PrintLine writes one "key: value" row of a diagnostic block.
func PrintLine(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%-24s %v\n", key+":", value)
}

func PrintFooter(w io.Writer, decorated bool) {
	if decorated {
		fmt.Fprintln(w, strings.Repeat("-", printWidth))
	}
}
