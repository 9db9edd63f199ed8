package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		if !errors.Is(err, errAlreadyReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
