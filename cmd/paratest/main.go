package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aryankumar/paratest/internal/cli"
	"github.com/aryankumar/paratest/internal/util"
)

func main() {
	// Signals are handled per run so the scheduler can stop gracefully
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", util.FriendlyError(err))
		os.Exit(1)
	}
}
