// # cmd/transmile/main.go
package main

import (
	"os"

	"transmile/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
