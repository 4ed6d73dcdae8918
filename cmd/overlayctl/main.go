package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/app"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/engine"
)

func main() {
	if err := app.Execute(); err != nil {
		if errors.Is(err, engine.ErrCancelled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
