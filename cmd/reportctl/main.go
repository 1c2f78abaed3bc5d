package main

import (
	"fmt"
	"os"

	"go-itam/cmd/reportctl/cli"
)

func main() {
	root := cli.NewRootCommand()

	root.AddCommand(cli.NewListCommand())
	root.AddCommand(cli.NewExportCommand())
	root.AddCommand(cli.NewInvalidateCommand())
	root.AddCommand(cli.NewCleanupCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
