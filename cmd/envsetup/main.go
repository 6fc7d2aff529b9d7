package main

import (
	"context"
	"os"

	"envsetup/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
