package main

import (
	"os"

	"github.com/crucial707/birthday-service/cmd/cli/root"
	_ "github.com/crucial707/birthday-service/cmd/cli/run"
	_ "github.com/crucial707/birthday-service/cmd/cli/seed"
	_ "github.com/crucial707/birthday-service/cmd/cli/status"
	_ "github.com/crucial707/birthday-service/cmd/cli/token"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
