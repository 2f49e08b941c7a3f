// Package main is the entry point for the pulsecheck CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/pulsecheck/cmd"
	"github.com/huangsam/pulsecheck/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	if perr := cmd.StopProfiling(); perr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warn stopping profiler: %v\n", perr)
	}
	cmd.SyncLogger()
	iocache.CloseStores()

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Fatal %v\n", err)
		os.Exit(1)
	}
}
