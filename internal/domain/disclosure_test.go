package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExposedName(t *testing.T) {
	assert.Equal(t, "add", ExposedName(NamespaceFlat, "calc", "add"))
	assert.Equal(t, "calc__add", ExposedName(NamespacePrefix, "calc", "add"))
	assert.Equal(t, "add", ExposedName("", "calc", "add"))
}

func TestParseNamespaceStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want ToolNamespaceStrategy
		ok   bool
	}{
		{in: "", want: NamespaceFlat, ok: true},
		{in: "flat", want: NamespaceFlat, ok: true},
		{in: "prefix", want: NamespacePrefix, ok: true},
		{in: "nested", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParseNamespaceStrategy(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestLevelStrings(t *testing.T) {
	assert.Equal(t, "collapsed", LevelCollapsed.String())
	assert.Equal(t, "summaries_loaded", LevelSummariesLoaded.String())
	assert.Equal(t, "inactive", ActivationInactive.String())
	assert.Equal(t, "active", ActivationActive.String())
}

func TestConfigEnabledServers(t *testing.T) {
	cfg := Config{Servers: []ServerSpec{
		{Name: "calc"},
		{Name: "github", Disabled: true},
		{Name: "weather"},
	}}
	got := cfg.EnabledServers()
	assert.Len(t, got, 2)
	assert.Equal(t, "calc", got[0].Name)
	assert.Equal(t, "weather", got[1].Name)
}
