package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *DomainConfig)
		wantErr    bool
		wantStatus string
	}{
		{"defaults", func(*DomainConfig) {}, false, "S100"},
		{"initial status is normalized", func(c *DomainConfig) { c.InitialStatus = " s200 " }, false, "S200"},
		{"blank initial status", func(c *DomainConfig) { c.InitialStatus = "  " }, true, ""},
		{"unknown match mode", func(c *DomainConfig) { c.TitleMatchMode = "fuzzy" }, true, ""},
		{"zero title limit", func(c *DomainConfig) { c.MaxTitleLength = 0 }, true, ""},
		{"zero bulk limit", func(c *DomainConfig) { c.MaxBulkStatusIDs = 0 }, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDomainConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, cfg.InitialStatus)
		})
	}
}

func TestParseTitleMatchMode(t *testing.T) {
	mode, err := ParseTitleMatchMode(" Suffix ")
	require.NoError(t, err)
	assert.Equal(t, TitleMatchSuffix, mode)

	mode, err = ParseTitleMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, TitleMatchExact, mode)
}
