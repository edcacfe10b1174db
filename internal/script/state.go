package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for a script state.
const (
	DefaultTimeout   = 2 * time.Second
	DefaultCallLimit = 100_000
)

// State wraps a gopher-lua state with the sandbox and limits applied.
//
// gopher-lua's LState is not goroutine-safe. A State must be used from one
// goroutine at a time; Host serializes access.
type State struct {
	L *lua.LState

	timeout   time.Duration
	callLimit int64
	calls     int64

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithTimeout bounds each top-level run. Zero disables the deadline.
func WithTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithCallLimit bounds the number of API calls per top-level run. Zero
// disables the limit.
func WithCallLimit(n int64) StateOption {
	return func(s *State) {
		s.callLimit = n
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	return s
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes every way of loading code from outside.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// begin resets the call budget and applies the deadline. The returned
// function removes the deadline and reports whether it expired.
func (s *State) begin(ctx context.Context) (end func() bool) {
	s.calls = 0
	if ctx == nil {
		ctx = context.Background()
	}
	cancel := func() {}
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	s.L.SetContext(ctx)
	return func() bool {
		expired := ctx.Err() != nil
		s.L.RemoveContext()
		cancel()
		return expired
	}
}

// count charges one API call, raising a Lua error past the limit.
func (s *State) count(L *lua.LState) {
	s.calls++
	if s.callLimit > 0 && s.calls > s.callLimit {
		L.RaiseError("%v", ErrCallLimit)
	}
}

// classify maps a failed run onto the package sentinels.
func (s *State) classify(err error, expired bool) error {
	switch {
	case err == nil:
		return nil
	case expired:
		return fmt.Errorf("%w: %s", ErrTimeout, luaError(err))
	case s.callLimit > 0 && s.calls > s.callLimit:
		return fmt.Errorf("%w: %s", ErrCallLimit, luaError(err))
	}
	return err
}

// Load compiles and runs a chunk read from r.
func (s *State) Load(ctx context.Context, r io.Reader, name string) (err error) {
	if s.closed {
		return ErrStateClosed
	}
	fn, err := s.L.Load(r, name)
	if err != nil {
		return err
	}
	_, err = s.Call(ctx, fn, 0)
	return err
}

// Call calls fn with args and returns nret results. Lua errors and Go
// panics raised inside fn are returned as errors.
func (s *State) Call(ctx context.Context, fn *lua.LFunction, nret int, args ...lua.LValue) (results []lua.LValue, err error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	end := s.begin(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		err = s.classify(err, end())
	}()
	return s.call(fn, nret, args...)
}

// call runs fn without touching the budget or deadline, for calls nested
// inside a run.
func (s *State) call(fn *lua.LFunction, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	if s.closed {
		return nil, ErrStateClosed
	}
	top := s.L.GetTop()
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, err
	}
	n := s.L.GetTop() - top
	results := make([]lua.LValue, n)
	for i := range n {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// Close releases the Lua state. Closing twice does nothing.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (s *State) IsClosed() bool {
	return s.closed
}

// luaError extracts the message of a Lua error value.
func luaError(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
