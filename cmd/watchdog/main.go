package main

import "github.com/aholston/watchdogai/internal/cmd"

func main() {
	cmd.Execute()
}
