package main

import (
	"github.com/awnumar/memguard"
	"github.com/jmcleod/confidant/cmd/confidant/cmd"
)

func main() {
	memguard.CatchInterrupt()
	// SafeExit wipes every enclave and locked buffer before exiting.
	memguard.SafeExit(cmd.Execute())
}
