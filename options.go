package memohook

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Forever keeps failed lookups cached for the lifetime of a session.
const Forever time.Duration = -1

const (
	// DefaultModule is the module that carries the path matching routine.
	DefaultModule = "filesystem_stdio.so"
	// DefaultWindow is the number of calls per hit rate report.
	DefaultWindow = 1000
)

// DefaultSignature is the prologue of the path matching routine. The four
// wildcards cover the rel32 of the call that loads the GOT pointer.
var DefaultSignature = MustParseSignature(
	"55 57 56 53 E8 ?? ?? ?? ?? 81 C3 47 93 0A 00 83 EC 1C " +
		"8B 44 24 38 8B 6C 24 3C 89 44 24 0C")

// Config holds the tunables of a Hook. Build one through Options.
type Config struct {
	// Module is the basename of the module holding the target.
	Module string
	// Symbol, when set, is looked up in the module's symbol table
	// before falling back to the signature scan.
	Symbol string
	// Signature locates the target inside the module's text.
	Signature Signature
	// NegativeTTL bounds how long a Failed result is reused.
	// Forever never revalidates, zero always revalidates.
	NegativeTTL time.Duration
	// Window is the number of calls per stats report.
	Window int
	// MaxEntries bounds every session table with LRU eviction.
	// Zero leaves tables unbounded.
	MaxEntries int
	// DecodeMode is the x86 mode (32 or 64) used to size the patch.
	// It defaults to the mode of the running process.
	DecodeMode int

	Logger   *zap.Logger
	Reporter func(Report)
	Now      func() time.Time

	// overrides the page protection change of the patch detour
	protect func(addr, size uintptr) error
}

// Option configures a Hook.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Module:      DefaultModule,
		Signature:   DefaultSignature,
		NegativeTTL: Forever,
		Window:      DefaultWindow,
		DecodeMode:  hostDecodeMode(),
		Logger:      zap.NewNop(),
		Now:         time.Now,
	}
}

// hostDecodeMode is the x86 mode of the running process, which is the
// mode of any code it can patch.
func hostDecodeMode() int {
	if runtime.GOARCH == "386" {
		return 32
	}
	return 64
}

func newConfig(opts []Option) Config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.DecodeMode != 32 && c.DecodeMode != 64 {
		c.DecodeMode = hostDecodeMode()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func WithModule(name string) Option {
	return func(c *Config) {
		c.Module = name
	}
}

func WithSymbol(name string) Option {
	return func(c *Config) {
		c.Symbol = name
	}
}

func WithSignature(s Signature) Option {
	return func(c *Config) {
		c.Signature = s
	}
}

// WithNegativeTTL sets how long a Failed outcome is served from cache.
func WithNegativeTTL(d time.Duration) Option {
	return func(c *Config) {
		c.NegativeTTL = d
	}
}

func WithWindow(n int) Option {
	return func(c *Config) {
		c.Window = n
	}
}

func WithMaxEntries(n int) Option {
	return func(c *Config) {
		c.MaxEntries = n
	}
}

func WithDecodeMode(mode int) Option {
	return func(c *Config) {
		c.DecodeMode = mode
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithReporter replaces the default sink, which logs every report at
// info level.
func WithReporter(fn func(Report)) Option {
	return func(c *Config) {
		c.Reporter = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}
