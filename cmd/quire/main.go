// Package main is the entry point for the quire command.
//
// quire loads a document, runs a sequence of editing commands against it
// and prints or saves the result:
//
//	quire -x 'insertText {"text": "hello"}' -x insertParagraphBreak doc.qm
//
// With -i it reads further commands from stdin, one per line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/dshills/quire/internal/app"
	"github.com/dshills/quire/internal/event"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	app      app.Options
	commands stringList
	format   string
	output   string
	list     bool
	trace    bool
	history  bool
	repl     bool
	group    string
	logLevel string
	settings stringList
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if opts == nil {
		return 0
	}

	format, err := app.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.app.File == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error: reading stdin: %v\n", err)
			return 1
		}
		opts.app.File = ""
		opts.app.Content = string(data)
	}
	opts.app.LogOutput = stderr

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, opts.app)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if opts.list {
		listCommands(application, stdout)
		return 0
	}

	if opts.history {
		if err := printHistory(application, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.trace {
		if _, err := application.Subscribe("**", traceTo(stderr)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.group != "" {
		if err := application.BeginGroup(ctx, opts.group); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	for _, line := range opts.commands {
		if err := runCommand(ctx, application, line); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.group != "" {
		if err := application.EndGroup(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.repl {
		f, ok := stdin.(*os.File)
		prompt := ok && term.IsTerminal(int(f.Fd()))
		if err := repl(ctx, application, stdin, stdout, prompt); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.output != "" {
		if err := application.Save(ctx, opts.output); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if opts.app.DocName != "" && application.Document().IsModified() {
		if err := application.Save(ctx, ""); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if opts.repl {
		return 0
	}

	out, err := application.Document().Content(format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if format == app.FormatJSON {
		out = string(formatJSON([]byte(out), stdout))
	}
	fmt.Fprintln(stdout, strings.TrimRight(out, "\n"))
	return 0
}

// formatJSON indents JSON, and colors it when w is a terminal.
func formatJSON(data []byte, w io.Writer) []byte {
	data = pretty.Pretty(data)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data = pretty.Color(data, nil)
	}
	return data
}

// traceTo prints one line per event.
func traceTo(w io.Writer) func(event.Event) error {
	return func(ev event.Event) error {
		switch p := ev.Payload.(type) {
		case event.CommandDispatched:
			_, err := fmt.Fprintf(w, "%s %s %s %s\n", ev.Topic, p.Command, p.Status, p.Duration)
			return err
		case event.DocumentChanged:
			_, err := fmt.Fprintf(w, "%s %s#%d\n", ev.Topic, p.Container, p.NodeID)
			return err
		case event.DocumentSaved:
			where := p.Path
			if where == "" {
				where = "store:" + p.Name
			}
			_, err := fmt.Fprintf(w, "%s %s (%s)\n", ev.Topic, where, p.Format)
			return err
		}
		_, err := fmt.Fprintf(w, "%s\n", ev.Topic)
		return err
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var opts options
	var showVersion bool

	fs := flag.NewFlagSet("quire", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.app.ConfigPath, "config", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.format, "format", "markup", "Output format (markup, json, text)")
	fs.StringVar(&opts.output, "o", "", "Save the document to this file instead of printing it")
	fs.StringVar(&opts.app.Content, "content", "", "Initial markup when no file is given")
	fs.Var(&opts.commands, "x", "Command to run, as `name [json-args | key=value...]` (repeatable)")
	fs.StringVar(&opts.group, "group", "", "Record the -x commands as one undo step with this name")
	fs.Var((*stringList)(&opts.app.Scripts), "script", "Lua script file or directory to load (repeatable)")
	fs.Var(&opts.settings, "set", "Override a setting, as path=value (repeatable)")
	fs.BoolVar(&opts.app.ReadOnly, "readonly", false, "Open the document read-only")
	fs.BoolVar(&opts.list, "list", false, "List available commands and exit")
	fs.BoolVar(&opts.trace, "trace", false, "Print command and document events to stderr")
	fs.StringVar(&opts.app.StorePath, "store", "", "Document database; commands are journaled there")
	fs.StringVar(&opts.app.DocName, "doc", "", "Open and save this named document in the -store database")
	fs.BoolVar(&opts.history, "history", false, "Print the -store journal (of -doc, if given) and exit")
	fs.BoolVar(&opts.repl, "i", false, "Read commands from stdin interactively; reloads the config file on change")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "quire - structured rich-text editing engine\n\n")
		fmt.Fprintf(stderr, "Usage: quire [options] [file|-]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  quire -content '<p>a[]</p>' -x 'insertText text=b'\n")
		fmt.Fprintf(stderr, "  quire -x selectAll -x 'applyFormat {\"format\":\"bold\"}' doc.qm\n")
		fmt.Fprintf(stderr, "  quire -format json -o doc.json doc.qm\n")
		fmt.Fprintf(stderr, "  quire -store notes.db -doc todo -x 'insertText text=milk'\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if showVersion {
		fmt.Fprintf(stderr, "quire %s\n", version)
		fmt.Fprintf(stderr, "Commit: %s\n", commit)
		fmt.Fprintf(stderr, "Built: %s\n", date)
		return nil, nil
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.app.File = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one file, got %d", fs.NArg())
	}

	if opts.app.StorePath == "" && (opts.app.DocName != "" || opts.history) {
		return nil, errors.New("-doc and -history need -store")
	}
	if opts.app.DocName != "" && opts.app.File != "" {
		return nil, errors.New("-doc and a file argument are exclusive")
	}
	if opts.repl && opts.app.File == "-" {
		return nil, errors.New("-i reads commands from stdin; the document cannot come from stdin too")
	}
	opts.app.WatchConfig = opts.repl

	opts.app.Settings = make(map[string]any)
	for _, s := range opts.settings {
		path, value, ok := strings.Cut(s, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid -set %q: want path=value", s)
		}
		opts.app.Settings[path] = value
	}
	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			return nil, fmt.Errorf("invalid log level %q", opts.logLevel)
		}
		opts.app.Settings["logging.level"] = opts.logLevel
	}
	return &opts, nil
}

func listCommands(a *app.Application, w io.Writer) {
	d := a.Dispatcher()
	for _, name := range d.Commands() {
		defs := d.Registry().Definitions(name)
		title := ""
		if len(defs) > 0 {
			title = defs[0].Title
		}
		if len(defs) > 1 {
			fmt.Fprintf(w, "%-24s %s (+%d variants)\n", name, title, len(defs)-1)
			continue
		}
		fmt.Fprintf(w, "%-24s %s\n", name, title)
	}
}
