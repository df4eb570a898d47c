package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	c := NewConfig()
	require.True(t, c.LoadStoreElimination())
	require.True(t, c.LoadHoisting())
	require.True(t, c.Promotion())
	require.True(t, c.SafeOptimizations())
	require.Equal(t, Features{HasDivide: true}, c.Features())
	require.Equal(t, 32, c.MaxOuts())

	// The defaults are not shared.
	require.NotSame(t, c, NewConfig())
}

func TestConfig_With(t *testing.T) {
	for _, tc := range []struct {
		name   string
		with   func(*Config) *Config
		expect func(*Config) bool
	}{
		{
			name:   "WithLoadStoreElimination",
			with:   func(c *Config) *Config { return c.WithLoadStoreElimination(false) },
			expect: func(c *Config) bool { return !c.LoadStoreElimination() },
		},
		{
			name:   "WithLoadHoisting",
			with:   func(c *Config) *Config { return c.WithLoadHoisting(false) },
			expect: func(c *Config) bool { return !c.LoadHoisting() },
		},
		{
			name:   "WithPromotion",
			with:   func(c *Config) *Config { return c.WithPromotion(false) },
			expect: func(c *Config) bool { return !c.Promotion() },
		},
		{
			name:   "WithSafeOptimizations",
			with:   func(c *Config) *Config { return c.WithSafeOptimizations(false) },
			expect: func(c *Config) bool { return !c.SafeOptimizations() },
		},
		{
			name:   "WithFeatures",
			with:   func(c *Config) *Config { return c.WithFeatures(Features{HasLPAE: true}) },
			expect: func(c *Config) bool { return c.Features() == Features{HasLPAE: true} },
		},
		{
			name:   "WithMaxOuts",
			with:   func(c *Config) *Config { return c.WithMaxOuts(4) },
			expect: func(c *Config) bool { return c.MaxOuts() == 4 },
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			base := NewConfig()
			modified := tc.with(base)
			require.True(t, tc.expect(modified))
			// The receiver is left untouched.
			require.Equal(t, NewConfig(), base)
		})
	}
}
