package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dgallion1/ihya/internal/citation"
)

// Command runs an external matcher once per document. The program reads a
// Request as JSON on stdin and writes a citation.Result as JSON on stdout.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// NewCommand splits a command line on whitespace into program and arguments.
func NewCommand(cmdline, dir string) (*Command, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("empty oracle command")
	}
	return &Command{Path: fields[0], Args: fields[1:], Dir: dir}, nil
}

func (c *Command) Match(ctx context.Context, tokens []string, selector string) (citation.Result, error) {
	input, err := json.Marshal(Request{Tokens: tokens, Selector: selector})
	if err != nil {
		return citation.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return citation.Result{}, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return citation.Result{}, fmt.Errorf("run %s: %w: %s", c.Path, err, msg)
	}

	var result citation.Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return citation.Result{}, fmt.Errorf("decode %s output: %w", c.Path, err)
	}
	return result, nil
}
