package backend

// Features are the optional instruction set features of the target CPU.
type Features struct {
	// HasDivide is true if the CPU implements sdiv and udiv.
	HasDivide bool
	// HasLPAE is true if aligned ldrd and strd are single-copy atomic.
	HasLPAE bool
}

// Config controls the optimizations and target features of a compilation,
// with the default implementation as NewConfig.
//
// Config is immutable: every With* method returns a modified copy.
type Config struct {
	loadStoreElimination bool
	loadHoisting         bool
	promotion            bool
	safeOptimizations    bool
	features             Features
	maxOuts              int
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &Config{
	loadStoreElimination: true,
	loadHoisting:         true,
	promotion:            true,
	safeOptimizations:    true,
	features:             Features{HasDivide: true},
	maxOuts:              32,
}

// NewConfig returns the default configuration: every optimization enabled,
// hardware divide available and no LPAE.
func NewConfig() *Config {
	return defaultConfig.clone()
}

// clone ensures all fields are copied.
func (c *Config) clone() *Config {
	ret := *c
	return &ret
}

// WithLoadStoreElimination enables the block-local removal of redundant loads and dead stores.
func (c *Config) WithLoadStoreElimination(enabled bool) *Config {
	ret := c.clone()
	ret.loadStoreElimination = enabled
	return ret
}

// WithLoadHoisting enables moving loads earlier to hide their latency.
func (c *Config) WithLoadHoisting(enabled bool) *Config {
	ret := c.clone()
	ret.loadHoisting = enabled
	return ret
}

// WithPromotion enables promoting the most used virtual registers into
// callee-save registers. When disabled every value lives in its frame slot.
func (c *Config) WithPromotion(enabled bool) *Config {
	ret := c.clone()
	ret.promotion = enabled
	return ret
}

// WithSafeOptimizations enables the assembler peepholes that never change
// behavior, such as dropping branches to the next instruction.
func (c *Config) WithSafeOptimizations(enabled bool) *Config {
	ret := c.clone()
	ret.safeOptimizations = enabled
	return ret
}

// WithFeatures sets the instruction set features of the target CPU.
func (c *Config) WithFeatures(f Features) *Config {
	ret := c.clone()
	ret.features = f
	return ret
}

// WithMaxOuts sets the largest outgoing argument area, in words, a method
// may reserve. Defaults to 32.
func (c *Config) WithMaxOuts(maxOuts int) *Config {
	ret := c.clone()
	ret.maxOuts = maxOuts
	return ret
}

// LoadStoreElimination returns true if load/store elimination is enabled.
func (c *Config) LoadStoreElimination() bool { return c.loadStoreElimination }

// LoadHoisting returns true if load hoisting is enabled.
func (c *Config) LoadHoisting() bool { return c.loadHoisting }

// Promotion returns true if register promotion is enabled.
func (c *Config) Promotion() bool { return c.promotion }

// SafeOptimizations returns true if the assembler peepholes are enabled.
func (c *Config) SafeOptimizations() bool { return c.safeOptimizations }

// Features returns the target CPU features.
func (c *Config) Features() Features { return c.features }

// MaxOuts returns the largest outgoing argument area in words.
func (c *Config) MaxOuts() int { return c.maxOuts }
