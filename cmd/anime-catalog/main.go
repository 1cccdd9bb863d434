package main

import (
	"context"
	"os"
	"syscall"

	"charm.land/fang/v2"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/cli"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		cli.NewRootCmd(),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
