package main

import (
	"os"

	"github.com/akarpov/tasklog/internal/cli"
)

func main() {
	code := cli.Run(os.Args[1:])
	os.Exit(code)
}
