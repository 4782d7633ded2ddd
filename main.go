package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/artmpl/cli"
	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

func main() {
	ctx := context.Background()

	err := cli.Run(ctx, os.Exit, os.Args[1:]...)
	if err == nil {
		return
	}

	if d, ok := lang.AsDiagnostic(err); ok {
		_ = d.WriteText(ctx, os.Stderr, "")
	} else {
		log.Error("run failed", slog.Any("error", err))
	}

	os.Exit(1)
}
