package main

import (
	"os"

	"github.com/AreaLayer/aluasm/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
