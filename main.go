package main

import (
	"github.com/leetboard/leetboard/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Execute()
}
