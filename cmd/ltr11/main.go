// Command ltr11 talks to an Infineon BGT60LTR11AIP radar on a
// RadarBaseboardMCU7: it inspects and configures the device, captures raw
// I/Q frames and runs the presence policies.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
