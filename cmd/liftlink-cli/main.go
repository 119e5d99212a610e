package main

import (
	"context"
	"liftlink-backend/cmd/liftlink-cli/commands"
	"liftlink-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "liftlink-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
