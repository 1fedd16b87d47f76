// Command quart approximates images with adaptive quadtrees.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/justincosentino/quart/cmd"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "quart: error: %v\n", err)
		os.Exit(1)
	}
}
