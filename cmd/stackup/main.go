// Command stackup brings a stack of services up in dependency order.
package main

import (
	"context"
	"os"

	"github.com/kbukum/stackup/cmd/stackup/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
