package main

import (
	"fcrawatch/cmd/fcrawatch/commands"
	"fcrawatch/internal/components/telemetry"
	"fcrawatch/pkg/serviceutil"
)

func main() {
	// replaced once the config (and --verbose) is read
	telemetry.InitSlog(false, "")
	commands.ExecuteContext(serviceutil.SignalContext())
}
