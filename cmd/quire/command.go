package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/quire/internal/app"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
)

// parseCommand splits a command line into its name and arguments. The
// arguments are either one JSON object or a list of key=value pairs.
func parseCommand(line string) (string, execctx.Args, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	if name == "" {
		return "", nil, fmt.Errorf("empty command")
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return name, nil, nil
	}

	args := execctx.Args{}
	if strings.HasPrefix(rest, "{") {
		if !gjson.Valid(rest) {
			return "", nil, fmt.Errorf("%s: invalid JSON arguments", name)
		}
		gjson.Parse(rest).ForEach(func(key, value gjson.Result) bool {
			args[key.String()] = value.Value()
			return true
		})
		return name, args, nil
	}

	for _, pair := range strings.Fields(rest) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return "", nil, fmt.Errorf("%s: argument %q is not key=value", name, pair)
		}
		args[k] = v
	}
	return name, args, nil
}

// runCommand runs one command line. undo and redo act on the history
// rather than the dispatcher.
func runCommand(ctx context.Context, a *app.Application, line string) error {
	name, args, err := parseCommand(line)
	if err != nil {
		return err
	}
	switch name {
	case "undo":
		return a.Undo(ctx)
	case "redo":
		return a.Redo(ctx)
	}

	r := a.Execute(ctx, name, args)
	switch r.Status {
	case handler.StatusOK, handler.StatusNoOp:
		if r.Message != "" {
			a.Logger().Info("%s: %s", name, r.Message)
		}
		return nil
	case handler.StatusCancelled:
		return fmt.Errorf("%s: cancelled", name)
	}
	return fmt.Errorf("%s: %w", name, r.Err())
}
