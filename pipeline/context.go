// Package pipeline orchestrates the train, evaluate, persist and predict
// cycle on top of an engine.Engine.
//
// All operations hang off a Context, which owns the random source used for
// row shuffling, the logger, and a bounded diagnostic slot describing the
// most recent failure:
//
//	ctx := pipeline.NewContext(gbdt.New(), pipeline.WithSeed(42))
//	defer ctx.Close()
//	res, err := ctx.TrainAndEvaluate(x, y, 0.8, params, "models", "demo")
//	if err != nil {
//	    fmt.Println(errors.StatusOf(err), ctx.LastError())
//	}
package pipeline

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

// MaxDiagnosticLen bounds the diagnostic slot in bytes.
const MaxDiagnosticLen = 1024

// Context carries per-caller state. A Context must not be used from several
// goroutines at once; create one per goroutine instead.
type Context struct {
	engine engine.Engine
	logger log.Logger
	clock  func() time.Time
	format engine.Format

	seed   uint64
	legacy bool
	src    rng.Source

	mu      sync.Mutex
	lastErr string
	ready   bool
}

// Option configures a Context.
type Option func(*Context)

// WithSeed makes row shuffling reproducible. Zero means entropy seeded.
func WithSeed(seed uint64) Option {
	return func(c *Context) { c.seed = seed }
}

// WithLegacyRNG switches row shuffling to the classic rand() generator.
func WithLegacyRNG() Option {
	return func(c *Context) { c.legacy = true }
}

// WithLogger overrides the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithClock overrides the clock used for timestamps in model file names.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.clock = now }
}

// WithDefaultFormat sets the model format used when a call does not
// specify one. JSON is the default.
func WithDefaultFormat(f engine.Format) Option {
	return func(c *Context) { c.format = f }
}

// NewContext returns a ready Context bound to eng.
func NewContext(eng engine.Engine, opts ...Option) *Context {
	c := &Context{
		engine: eng,
		logger: log.GetLoggerWithName("pipeline"),
		clock:  time.Now,
		format: engine.FormatJSON,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Init()
	return c
}

// Init (re)initialises the random source and marks the Context ready.
// Calling Init on a ready Context reseeds it.
func (c *Context) Init() {
	seed := c.seed
	if seed == 0 {
		seed = rng.NewEntropySeed()
	}
	if c.legacy {
		c.src = rng.NewLCG(seed)
	} else {
		c.src = rng.NewSplitMix64(seed)
	}
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()
	c.logger.Debug("Context initialized", log.RandomSeedKey, seed, "legacy_rng", c.legacy)
}

// Close releases the Context. Every later operation fails with
// NotInitialized until Init is called again.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	return nil
}

// LastError returns the diagnostic message of the most recent failure. It
// is not cleared by later successful calls.
func (c *Context) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Status maps err to its status code.
func (c *Context) Status(err error) errors.Status {
	return errors.StatusOf(err)
}

func (c *Context) checkReady(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.engine == nil {
		return errors.NewNotInitialized(op)
	}
	return nil
}

// capture records *err in the diagnostic slot. Deferred by every exported
// operation.
func (c *Context) capture(op string, err *error) {
	if *err == nil {
		return
	}
	c.setLastError(fmt.Sprintf("%s: %v", op, *err))
}

func (c *Context) setLastError(msg string) {
	msg = truncateUTF8(msg, MaxDiagnosticLen)
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
