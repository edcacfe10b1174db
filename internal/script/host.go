package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/logging"
	"github.com/dshills/quire/internal/schema"
)

// hostKey marks execution contexts that are running inside a host.
const hostKey = "script.host"

// Command is a command defined by a script.
type Command struct {
	Name       string
	Source     string
	Definition handler.Definition
}

// Host loads scripts into one Lua state and exposes the commands they
// define as dispatcher handlers. Calls into the state are serialized; a
// command may dispatch other commands, including script ones, while it
// runs.
type Host struct {
	mu sync.Mutex

	state      *State
	api        *api
	registry   *schema.Registry
	logger     *logging.Logger
	dispatcher *dispatcher.Dispatcher

	commands []Command
	// source is the chunk being loaded, current the stack of running
	// commands.
	source  string
	current []*execctx.ExecutionContext
}

// Option configures a Host.
type Option func(*hostOptions)

type hostOptions struct {
	registry *schema.Registry
	logger   *logging.Logger
	state    []StateOption
}

// WithRegistry sets the kind registry scripts resolve kind names with.
func WithRegistry(reg *schema.Registry) Option {
	return func(o *hostOptions) {
		o.registry = reg
	}
}

// WithLogger sets the logger receiving script output.
func WithLogger(l *logging.Logger) Option {
	return func(o *hostOptions) {
		o.logger = l
	}
}

// WithStateOptions sets the limits of the Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(o *hostOptions) {
		o.state = append(o.state, opts...)
	}
}

// NewHost creates a host with a fresh sandboxed state.
func NewHost(opts ...Option) *Host {
	var o hostOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = schema.Default()
	}

	h := &Host{
		state:    NewState(o.state...),
		registry: o.registry,
		logger:   logging.OrNop(o.logger).WithComponent("script"),
	}
	h.api = newAPI(h.state, h.registry)
	h.installModule()
	return h
}

func (h *Host) installModule() {
	L := h.state.L
	mod := L.SetFuncs(L.NewTable(), h.api.wrap(map[string]lua.LGFunction{
		"command":  h.luaCommand,
		"dispatch": h.luaDispatch,
		"node":     h.luaNode,
		"chars":    h.luaChars,
		"log":      h.luaLog,
	}))
	L.SetGlobal("quire", mod)
	L.SetGlobal("print", L.NewFunction(h.luaLog))
}

// LoadString runs src as a chunk called name.
func (h *Host) LoadString(name, src string) error {
	return h.load(name, []byte(src))
}

// LoadFile runs the script at path.
func (h *Host) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Source: path, Err: err}
	}
	return h.load(path, data)
}

// LoadPaths loads each file, and every *.lua file of each directory in
// name order. It stops at the first failure.
func (h *Host) LoadPaths(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return &Error{Source: p, Err: err}
		}
		if !info.IsDir() {
			if err := h.LoadFile(p); err != nil {
				return err
			}
			continue
		}
		files, err := filepath.Glob(filepath.Join(p, "*.lua"))
		if err != nil {
			return &Error{Source: p, Err: err}
		}
		sort.Strings(files)
		for _, f := range files {
			if err := h.LoadFile(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Host) load(name string, src []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.source = name
	defer func() { h.source = "" }()
	if err := h.state.Load(context.Background(), bytes.NewReader(src), name); err != nil {
		return &Error{Source: name, Err: err}
	}
	h.logger.Debug("loaded %s", name)
	return nil
}

// Attach registers the loaded commands with d. Commands defined by
// scripts loaded later are registered as they are defined.
func (h *Host) Attach(d *dispatcher.Dispatcher) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dispatcher = d
	var errs []error
	for _, c := range h.commands {
		errs = append(errs, d.Register(c.Name, c.Definition))
	}
	return errors.Join(errs...)
}

// Commands returns the commands defined so far, in definition order.
func (h *Host) Commands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Command(nil), h.commands...)
}

// Close releases the Lua state.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Close()
}

// inside reports whether ec or one of its parents is already running in
// this host, on the goroutine that holds the lock.
func (h *Host) inside(ec *execctx.ExecutionContext) bool {
	for p := ec; p != nil; p = p.Parent {
		if v, ok := p.GetData(hostKey); ok && v == h {
			return true
		}
	}
	return false
}

// invoke calls fn for ec. A call nested in a running command reuses the
// lock, budget and deadline of the outermost one.
func (h *Host) invoke(ec *execctx.ExecutionContext, fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	nested := h.inside(ec)
	if !nested {
		h.mu.Lock()
		defer h.mu.Unlock()
		ec.SetData(hostKey, h)
		defer delete(ec.Data, hostKey)
	}
	h.current = append(h.current, ec)
	defer func() { h.current = h.current[:len(h.current)-1] }()

	var (
		rets []lua.LValue
		err  error
	)
	if nested {
		rets, err = h.state.call(fn, 1, args...)
	} else {
		rets, err = h.state.Call(ec.Context(), fn, 1, args...)
	}
	if err != nil || len(rets) == 0 {
		return lua.LNil, err
	}
	return rets[0], nil
}

// contextTable builds the first argument of a command function.
func (h *Host) contextTable(ec *execctx.ExecutionContext) *lua.LTable {
	L := h.state.L
	t := L.NewTable()
	t.RawSetString("id", lua.LString(ec.ID))
	t.RawSetString("command", lua.LString(ec.Command))
	t.RawSetString("root", h.api.node(ec.Root))
	t.RawSetString("range", h.api.rangeValue(ec.Range))
	t.RawSetString("selector", h.api.nodes(ec.Selector))
	return t
}

// scriptHandler runs a Lua command function.
type scriptHandler struct {
	host   *Host
	source string
	fn     *lua.LFunction
}

func (s *scriptHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	ret, err := s.host.invoke(ec, s.fn, s.host.contextTable(ec), s.host.api.toLua(action.Args))
	if err != nil {
		return handler.Error(&Error{Source: s.source, Command: action.Name, Err: err})
	}
	return resultFrom(ret)
}

// resultFrom maps a command's return value: nothing or true is success,
// false a no-op, a string a success message, a table result data.
func resultFrom(v lua.LValue) handler.Result {
	switch val := v.(type) {
	case lua.LBool:
		if !val {
			return handler.NoOp()
		}
	case lua.LString:
		return handler.SuccessWithMessage(string(val))
	case *lua.LTable:
		r := handler.Success()
		for k, item := range toArgs(val) {
			r = r.WithData(k, item)
		}
		return r
	}
	return handler.Success()
}

func (h *Host) checkFunc(name string, fn *lua.LFunction) func(*execctx.ExecutionContext) bool {
	return func(ec *execctx.ExecutionContext) bool {
		ret, err := h.invoke(ec, fn, h.contextTable(ec))
		if err != nil {
			h.logger.Warn("check for %s failed: %v", name, err)
			return false
		}
		return lua.LVAsBool(ret)
	}
}

// quire.command(name, [opts], fn)
// opts may hold title, description, selector (a list of kind names,
// outermost first) and check (a function of ctx returning a boolean).
func (h *Host) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	if name == "" {
		L.ArgError(1, "command name is empty")
	}

	var opts *lua.LTable
	var fn *lua.LFunction
	if f, ok := L.Get(2).(*lua.LFunction); ok {
		fn = f
	} else {
		opts = L.CheckTable(2)
		fn = L.CheckFunction(3)
	}

	source := h.source
	if source == "" {
		source = "<runtime>"
	}
	def := handler.Definition{
		Title:   name,
		Handler: &scriptHandler{host: h, source: source, fn: fn},
	}
	if opts != nil {
		if v, ok := opts.RawGetString("title").(lua.LString); ok {
			def.Title = string(v)
		}
		if v, ok := opts.RawGetString("description").(lua.LString); ok {
			def.Description = string(v)
		}
		if sel, ok := opts.RawGetString("selector").(*lua.LTable); ok {
			for i := 1; i <= sel.Len(); i++ {
				kindName := lua.LVAsString(sel.RawGetInt(i))
				k, ok := h.registry.Kind(kindName)
				if !ok {
					L.RaiseError("%v: %s: unknown kind %q in selector", ErrInvalidCommand, name, kindName)
				}
				def.Selector = append(def.Selector, vnode.OfKind(k))
			}
		}
		if check, ok := opts.RawGetString("check").(*lua.LFunction); ok {
			def.Check = h.checkFunc(name, check)
		}
	}

	h.commands = append(h.commands, Command{Name: name, Source: source, Definition: def})
	if h.dispatcher != nil {
		if err := h.dispatcher.Register(name, def); err != nil {
			L.RaiseError("%v", err)
		}
	}
	return 0
}

// quire.dispatch(name, [args]) -> ok, message
// Runs another command inside the running one, on the same range.
func (h *Host) luaDispatch(L *lua.LState) int {
	name := L.CheckString(1)
	if h.dispatcher == nil || len(h.current) == 0 {
		L.RaiseError("dispatch %s: no running command", name)
	}
	ec := h.current[len(h.current)-1]
	result := h.dispatcher.Dispatch(ec.Context(), handler.Action{
		Name: name,
		Args: execctx.Args(toArgs(L.Get(2))),
	})
	if result.IsError() {
		L.Push(lua.LFalse)
		L.Push(lua.LString(result.Err().Error()))
		return 2
	}
	L.Push(lua.LBool(result.IsOK()))
	L.Push(lua.LString(result.Message))
	return 2
}

// quire.node(kind) -> node
func (h *Host) luaNode(L *lua.LState) int {
	L.Push(h.api.node(vnode.New(h.api.checkKind(L, 1))))
	return 1
}

// quire.chars(text) -> {node}
func (h *Host) luaChars(L *lua.LState) int {
	L.Push(h.api.nodes(vnode.NewChars(L.CheckString(1))))
	return 1
}

// quire.log(...)
// Also installed as print.
func (h *Host) luaLog(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	h.logger.Info("%s", strings.Join(parts, "\t"))
	return 0
}
