// canon-lint is a custom static analyzer for canon-core performance patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/canon-core/tools/canon-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
