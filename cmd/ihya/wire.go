package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/config"
	"github.com/dgallion1/ihya/internal/oracle"
	"github.com/dgallion1/ihya/internal/translate"
)

var errNoOracle = errors.New("no matching oracle configured (set IHYA_ORACLE_URL or IHYA_ORACLE_COMMAND)")

// newOracle builds the configured matching oracle wrapped with retries.
func newOracle(cfg config.Config, log *slog.Logger) (citation.Oracle, error) {
	switch {
	case cfg.OracleURL != "":
		return oracle.WithRetry(oracle.NewHTTP(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleTimeout), log), nil
	case cfg.OracleCommand != "":
		cmd, err := oracle.NewCommand(cfg.OracleCommand, "")
		if err != nil {
			return nil, err
		}
		return oracle.WithRetry(cmd, log), nil
	}
	return nil, errNoOracle
}

// unconfiguredOracle fails every document, so index jobs report the missing
// setting instead of crashing.
var unconfiguredOracle = citation.OracleFunc(func(context.Context, []string, string) (citation.Result, error) {
	return citation.Result{}, errNoOracle
})

func newBuilder(cfg config.Config, o citation.Oracle) citation.Builder {
	return citation.Builder{
		Oracle:   o,
		Selector: cfg.OracleSelector,
		Workers:  cfg.WorkerCount,
		Timeout:  cfg.OracleTimeout,
		Radius:   cfg.ContextRadius,
	}
}

// newTranslationBooks checkpoints machine translations under
// <alignment dir>/machine so they never overwrite proportional alignments.
func newTranslationBooks(cfg config.Config, client translate.Completer, log *slog.Logger) *translate.Books {
	return &translate.Books{
		Translator: translate.Translator{
			Client:          client,
			CheckpointEvery: cfg.CheckpointEvery,
			ContextTokens:   1500,
			ContextLines:    10,
			Log:             log,
		},
		SourceDir: cfg.SourceDir,
		OutputDir: filepath.Join(cfg.AlignmentDir, translate.MachineDir),
	}
}
