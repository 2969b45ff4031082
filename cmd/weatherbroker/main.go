package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// cli is the weatherbroker command line. Service settings come from the
// environment (and an optional .env file); flags cover per-call options only.
type cli struct {
	EnvFile string `name:"env-file" default:".env" help:"Environment file loaded before reading configuration."`

	Serve serveCmd `cmd:"" default:"1" help:"Serve the adapter over HTTP and run the poller (default)."`
	Get   getCmd   `cmd:"" help:"Fetch current conditions once and print a port value or the full snapshot."`
	Test  testCmd  `cmd:"" help:"Run a diagnostic command (self, get) or list the available ones."`
	Info  infoCmd  `cmd:"" help:"Print the module descriptor."`
	Check checkCmd `cmd:"" help:"Validate the adapter configuration without fetching."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("weatherbroker"),
		kong.Description("Current weather conditions as adapter ports."),
		kong.UsageOnError(),
	)

	if err := godotenv.Load(c.EnvFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("env file not loaded", "path", c.EnvFile, "error", err)
	}

	ctx.FatalIfErrorf(ctx.Run())
}
