// Command ihya aligns the Arabic text of the Ihya' with its translations,
// builds the citation index, and serves both over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/ihya/internal/config"
)

var version = "dev"

// CLI is the ihya command tree.
type CLI struct {
	Env       string `name:"env" help:"Dotenv file to load before reading IHYA_* variables." default:".env"`
	LogLevel  string `name:"log-level" help:"Override IHYA_LOG_LEVEL (debug, info, warn, error)."`
	LogFormat string `name:"log-format" help:"Override IHYA_LOG_FORMAT (json, text)."`

	Align      AlignCmd      `cmd:"" help:"Align every translated book with its source text."`
	Index      IndexCmd      `cmd:"" help:"Build the citation index over the source texts."`
	Transcript TranscriptCmd `cmd:"" help:"Align a WebVTT lecture transcript with a source book."`
	Translate  TranslateCmd  `cmd:"" help:"Machine-translate a source book line by line, resuming from its checkpoint."`
	Dict       DictGroup     `cmd:"" help:"Dictionary operations."`
	Serve      ServeCmd      `cmd:"" help:"Run the HTTP API."`
	Version    VersionCmd    `cmd:"" help:"Print version information."`
}

// DictGroup holds the dictionary commands.
type DictGroup struct {
	Build  DictBuildCmd  `cmd:"" help:"Build the sharded dictionary from a word/explanation export."`
	Lookup DictLookupCmd `cmd:"" help:"Look a word up in the sharded dictionary."`
}

// app is bound into every command's Run method.
type app struct {
	ctx context.Context
	cfg config.Config
	log *slog.Logger
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("ihya"),
		kong.Description("Bilingual alignment and citation indexing for the Ihya' 'Ulum al-Din."),
		kong.UsageOnError(),
	)

	config.LoadDotenv(config.NewLogger(os.Stderr, "info", "text"), cli.Env)
	cfg := config.Load()
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}
	// Command output goes to stdout, so logs go to stderr.
	log := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kctx.Run(&app{ctx: ctx, cfg: cfg, log: log}); err != nil {
		log.Error("command failed", "command", kctx.Command(), "error", err)
		stop()
		os.Exit(1)
	}
}

// pick returns flag when it was given, otherwise the configured value.
func pick(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

func pickInt(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}
