// Package app wires quire's components together: configuration, logging,
// the kind schema, the document engine, the command dispatcher with its
// execution queue, and the Lua script host.
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/dispatcher/handlers/core"
	"github.com/dshills/quire/internal/dispatcher/queue"
	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/logging"
	"github.com/dshills/quire/internal/schema"
	"github.com/dshills/quire/internal/script"
	"github.com/dshills/quire/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses config.DefaultPath.
	ConfigPath string

	// Settings override configuration values by dotted path.
	Settings map[string]any

	// Environ replaces os.Environ for the QUIRE_* layer.
	Environ func() []string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// File is the document to open. It need not exist.
	File string

	// Content is the initial markup when File is empty.
	Content string

	// Scripts are loaded after the configured script paths.
	Scripts []string

	// ReadOnly opens the document read-only.
	ReadOnly bool

	// StorePath is a document database. When set, top-level commands are
	// journaled there.
	StorePath string

	// DocName names the document in the store. It is read when File is
	// empty and written by Save.
	DocName string

	// WatchConfig reloads the configuration file when it changes. Only
	// the log level is applied to a running application.
	WatchConfig bool
}

// Application owns one document and the machinery that edits it.
type Application struct {
	mu sync.Mutex

	config     *config.Config
	logger     *logging.Logger
	registry   *schema.Registry
	doc        *Document
	dispatcher *dispatcher.Dispatcher
	queue      *queue.Queue
	scripts    *script.Host
	events     *event.Bus
	store      *store.Store
	docName    string
	unwatch    func()
	watcher    *config.Watcher

	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New builds and starts an application. The execution queue runs until
// Shutdown or until ctx ends.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{done: make(chan struct{})}
	if err := app.bootstrap(ctx, opts); err != nil {
		app.stop()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap(ctx context.Context, opts Options) error {
	// 1. Config
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfgOpts := []config.Option{config.WithFile(path), config.WithOverrides(opts.Settings)}
	if opts.Environ != nil {
		cfgOpts = append(cfgOpts, config.WithEnviron(opts.Environ))
	}
	app.config = config.New(cfgOpts...)
	if err := app.config.Load(ctx); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	// 2. Logger
	app.logger = newLogger(app.config.Logging(), opts.LogOutput)
	if err := app.config.Validate(); err != nil {
		for path, e := range app.config.ConfigErrors() {
			app.logger.Warn("config %s: %v; using default", path, e)
		}
	}

	// 3. Schema
	app.registry = schema.Default()
	kinds, err := app.config.Kinds()
	if err != nil {
		return &InitError{Component: "schema", Err: err}
	}
	if err := app.registry.Define(kinds); err != nil {
		return &InitError{Component: "schema", Err: err}
	}

	// 4. Store
	if opts.StorePath != "" {
		if app.store, err = store.Open(opts.StorePath); err != nil {
			return &InitError{Component: "store", Err: err}
		}
		app.docName = opts.DocName
	}

	// 5. Document
	content := opts.Content
	switch {
	case opts.File != "":
		if content, err = readContent(opts.File, app.registry); err != nil {
			return err
		}
	case app.store != nil && app.docName != "":
		stored, err := app.store.Document(app.docName)
		switch {
		case err == nil:
			content = stored
		case !errors.Is(err, store.ErrNoDocument):
			return &InitError{Component: "store", Err: err}
		}
	}
	engOpts := []engine.Option{
		engine.WithContent(content),
		engine.WithRegistry(app.registry),
		engine.WithLogger(app.logger),
		engine.WithMaxUndoEntries(app.config.History().MaxEntries),
	}
	if opts.ReadOnly {
		engOpts = append(engOpts, engine.WithReadOnly())
	}
	eng, err := engine.New(engOpts...)
	if err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	app.doc = newDocument(opts.File, eng)

	// 6. Events
	app.events = event.NewBus(event.WithLogger(app.logger))
	if err := app.events.Start(); err != nil {
		return &InitError{Component: "events", Err: err}
	}
	if app.store != nil {
		if err := app.journal(); err != nil {
			return &InitError{Component: "store", Err: err}
		}
	}

	// 7. Dispatcher
	dc := app.config.Dispatcher()
	dcfg := dispatcher.DefaultConfig().
		WithPanicRecovery(dc.RecoverPanics).
		WithMaxDepth(dc.MaxDepth)
	if dc.Metrics {
		dcfg = dcfg.WithMetrics()
	}
	app.dispatcher = dispatcher.New(dcfg)
	app.dispatcher.SetLogger(app.logger)
	app.dispatcher.SetEditor(eng)
	if err := app.dispatcher.RegisterNamespace(core.Namespace(app.registry)); err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}
	for name, def := range core.ListDefinitions() {
		if err := app.dispatcher.Register(name, def); err != nil {
			return &InitError{Component: "dispatcher", Err: err}
		}
	}

	app.publishEvents()

	// 8. Queue
	app.queue = queue.New(dc.QueueSize, app.logger)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app.cancel = cancel
	go func() {
		defer close(app.done)
		app.queue.Run(runCtx)
	}()

	// 9. Scripts
	sc := app.config.Script()
	app.scripts = script.NewHost(
		script.WithRegistry(app.registry),
		script.WithLogger(app.logger),
		script.WithStateOptions(script.WithTimeout(sc.Timeout), script.WithCallLimit(int64(sc.CallLimit))),
	)
	if err := app.scripts.Attach(app.dispatcher); err != nil {
		return &InitError{Component: "scripts", Err: err}
	}
	paths := append(append([]string(nil), sc.Paths...), opts.Scripts...)
	if err := app.scripts.LoadPaths(paths); err != nil {
		return &InitError{Component: "scripts", Err: err}
	}

	// 10. Config watcher
	if opts.WatchConfig {
		if app.watcher, err = app.config.Watch(app.configReloaded); err != nil {
			app.logger.Warn("not watching config: %v", err)
		}
	}

	app.logger.Debug("started with %d commands", len(app.dispatcher.Commands()))
	return nil
}

// configReloaded applies a reloaded configuration.
func (app *Application) configReloaded(err error) {
	if err != nil {
		app.logger.Warn("reloading config: %v", err)
		return
	}
	lc := app.config.Logging()
	if level, ok := logging.ParseLevel(lc.Level); ok {
		app.logger.SetLevel(level)
	}
	app.logger.Info("config reloaded")
}

func newLogger(lc config.LoggingConfig, out io.Writer) *logging.Logger {
	cfg := logging.DefaultConfig()
	if out != nil {
		cfg.Output = out
	}
	if lc.Prefix != "" {
		cfg.Prefix = lc.Prefix
	}
	l := logging.New(cfg)
	if level, ok := logging.ParseLevel(lc.Level); ok {
		l.SetLevel(level)
	} else {
		l.Warn("unknown log level %q", lc.Level)
	}
	return l
}

// Execute runs the command name on the queue goroutine.
func (app *Application) Execute(ctx context.Context, name string, args execctx.Args) handler.Result {
	if app.isClosed() {
		return handler.Error(ErrClosed)
	}
	return app.queue.Dispatch(ctx, app.dispatcher, handler.Action{Name: name, Args: args})
}

// Undo reverts the last command.
func (app *Application) Undo(ctx context.Context) error {
	return app.run(ctx, func(context.Context) error { return app.doc.Engine.Undo() })
}

// Redo reapplies the last undone command.
func (app *Application) Redo(ctx context.Context) error {
	return app.run(ctx, func(context.Context) error { return app.doc.Engine.Redo() })
}

// BeginGroup makes the commands run until EndGroup a single undo step
// called name. It fails when a group is already open.
func (app *Application) BeginGroup(ctx context.Context, name string) error {
	return app.run(ctx, func(context.Context) error {
		if !app.doc.Engine.BeginUndoGroup(name) {
			return ErrGroupOpen
		}
		return nil
	})
}

// EndGroup closes the open undo group. It fails when none is open.
func (app *Application) EndGroup(ctx context.Context) error {
	return app.run(ctx, func(context.Context) error {
		if !app.doc.Engine.InUndoGroup() {
			return ErrNoGroup
		}
		app.doc.Engine.EndUndoGroup()
		return nil
	})
}

// Save writes the document to path, or to its own path when path is empty.
// A document opened by name from the store is also written back there.
func (app *Application) Save(ctx context.Context, path string) error {
	return app.run(ctx, func(context.Context) error {
		stored := app.store != nil && app.docName != ""
		if stored {
			if app.doc.Engine.IsReadOnly() {
				return ErrReadOnly
			}
			if err := app.store.PutDocument(app.docName, app.doc.Engine.Markup()); err != nil {
				return err
			}
			app.doc.markSaved()
			app.publish(event.TopicDocumentSaved, event.DocumentSaved{Name: app.docName, Format: string(FormatMarkup)})
			if path == "" && app.doc.Path == "" {
				return nil
			}
		}

		var err error
		if path == "" {
			err = app.doc.Save()
		} else {
			err = app.doc.SaveAs(path)
		}
		if err != nil {
			return err
		}
		app.publish(event.TopicDocumentSaved, event.DocumentSaved{
			Path:   app.doc.Path,
			Format: string(FormatForPath(app.doc.Path)),
		})
		return nil
	})
}

func (app *Application) run(ctx context.Context, fn queue.Func) error {
	if app.isClosed() {
		return ErrClosed
	}
	return app.queue.Execute(ctx, fn)
}

// Document returns the open document.
func (app *Application) Document() *Document { return app.doc }

// Engine returns the document engine.
func (app *Application) Engine() *engine.Engine { return app.doc.Engine }

// Dispatcher returns the command dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher { return app.dispatcher }

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config { return app.config }

// Registry returns the kind schema.
func (app *Application) Registry() *schema.Registry { return app.registry }

// Store returns the document database, or nil when none was opened.
func (app *Application) Store() *store.Store { return app.store }

// DocName returns the document's name in the store.
func (app *Application) DocName() string { return app.docName }

// Scripts returns the script host.
func (app *Application) Scripts() *script.Host { return app.scripts }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}

// Shutdown stops the queue after the running command and closes the
// script host. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return
	}
	app.closed = true
	app.mu.Unlock()
	app.stop()
}

func (app *Application) stop() {
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.queue != nil {
		app.queue.Close()
	}
	if app.cancel != nil {
		app.cancel()
		<-app.done
	}
	if app.unwatch != nil {
		app.unwatch()
	}
	if app.events != nil && app.events.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.events.Stop(ctx); err != nil && app.logger != nil {
			app.logger.Warn("stopping events: %v", err)
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil && app.logger != nil {
			app.logger.Warn("closing store: %v", err)
		}
	}
	if app.scripts != nil {
		if err := app.scripts.Close(); err != nil && app.logger != nil {
			app.logger.Warn("closing scripts: %v", err)
		}
	}
}
