package main

import (
	"context"
	"os"

	"github.com/dayon-app/dayon-go/internal/cli/command"
	"github.com/dayon-app/dayon-go/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.SignalContext(context.Background())
	code := command.Run(ctx, command.App(), os.Args)
	stop()
	os.Exit(code)
}
