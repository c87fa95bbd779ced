package lua

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds each call into a script.
const DefaultExecutionTimeout = time.Second

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every
// call from Go.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	logger  *slog.Logger
	closed  bool
}

// Option configures a State.
type Option func(*State)

// WithExecutionTimeout sets the deadline for each call.
func WithExecutionTimeout(d time.Duration) Option {
	return func(s *State) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger that receives print output.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...Option) *State {
	s := &State{
		timeout: DefaultExecutionTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	installSandbox(s.L, s.logger)
	return s
}

// openSafeLibraries opens only libraries without host access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// DoString runs code, typically a script defining render.
func (s *State) DoString(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}
	return s.run(ctx, "script", func() error { return s.L.DoString(code) })
}

// Call calls the global function fn and returns its first result.
func (s *State) Call(ctx context.Context, fn string, args ...lua.LValue) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil, ErrStateClosed
	}
	return s.call(ctx, fn, func(*lua.LState) []lua.LValue { return args })
}

// call runs fn with arguments built under the lock.
func (s *State) call(ctx context.Context, fn string, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	f := s.L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("%s: %w", fn, ErrNoFunction)
	}
	var ret lua.LValue = lua.LNil
	err := s.run(ctx, fn, func() error {
		if err := s.L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args(s.L)...); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	return ret, err
}

// run executes fn under the call deadline, recovering Go panics raised
// inside the interpreter.
func (s *State) run(ctx context.Context, what string, fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua %s: panic: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("lua %s: %w: %w", what, ErrExecutionTimeout, ctxErr)
		}
		return fmt.Errorf("lua %s: %w", what, err)
	}
	return nil
}

// IsClosed reports whether Close was called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the interpreter. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
