package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/quire/internal/app"
)

// repl reads command lines from in until EOF or quit. After each command
// the document is printed as markup. Errors are reported and reading
// continues. Commands between "begin [name]" and "end" undo as one step.
func repl(ctx context.Context, a *app.Application, in io.Reader, out io.Writer, prompt bool) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, rest, _ := strings.Cut(line, " ")
		var err error
		switch word {
		case "quit", "exit":
			return nil
		case "print":
			err = printContent(a, out, strings.TrimSpace(rest))
			if err == nil {
				continue
			}
		case "save":
			err = a.Save(ctx, strings.TrimSpace(rest))
		case "begin":
			name := strings.TrimSpace(rest)
			if name == "" {
				name = "group"
			}
			err = a.BeginGroup(ctx, name)
		case "end":
			err = a.EndGroup(ctx)
		default:
			err = runCommand(ctx, a, line)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, a.Engine().Markup())
	}
}

func printContent(a *app.Application, out io.Writer, format string) error {
	if format == "" {
		format = string(app.FormatMarkup)
	}
	f, err := app.ParseFormat(format)
	if err != nil {
		return err
	}
	s, err := a.Document().Content(f)
	if err != nil {
		return err
	}
	if f == app.FormatJSON {
		s = string(formatJSON([]byte(s), out))
	}
	fmt.Fprintln(out, strings.TrimRight(s, "\n"))
	return nil
}

// printHistory lists the journal entries of the open document, or of all
// documents when none is named.
func printHistory(a *app.Application, out io.Writer) error {
	entries, err := a.Store().Entries(0, 0, a.DocName())
	if err != nil {
		return err
	}
	for _, e := range entries {
		args := ""
		if len(e.Args) > 0 {
			data, err := json.Marshal(e.Args)
			if err != nil {
				return err
			}
			args = " " + string(data)
		}
		fmt.Fprintf(out, "%5d  %s  %-8s %s%s\n",
			e.Seq, e.Time.Local().Format(time.DateTime), e.Status, e.Command, args)
	}
	return nil
}
