package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenlink/screenlink/internal/config"
	"github.com/screenlink/screenlink/internal/primary"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig
	cfg.Server.Name = "primary"
	cfg.Server.PrimaryWidth = 100
	cfg.Server.PrimaryHeight = 100
	cfg.Server.ZoneSize = 5
	cfg.Topology = []config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "R"},
		{Screen: "R", Edge: "left", Target: "primary"},
	}
	return &cfg
}

func TestOpenAcquiresPrimaryDriverOnce(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)

	require.NoError(t, s.Open())
	assert.Error(t, s.Open(), "second Open should fail while already open")
}

func TestQuitReleasesPrimaryDriver(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)
	require.NoError(t, s.Open())

	s.Quit()

	assert.NoError(t, driver.Acquire(), "driver should be released after Quit")
}

func TestSetConfigRejectsSelfEdge(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)

	bad := testConfig()
	bad.Topology = []config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "primary"},
	}

	before := s.GetConfig()
	assert.Error(t, s.SetConfig(bad), "self-edge config should be rejected")
	assert.Same(t, before, s.GetConfig(), "config should be unchanged after rejection")
}

func TestSetConfigAcceptsValidTopology(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)

	next := testConfig()
	next.Topology = []config.EdgeMapping{
		{Screen: "primary", Edge: "left", Target: "L"},
	}
	require.NoError(t, s.SetConfig(next))
	assert.Same(t, next, s.GetConfig(), "config should be swapped to the new value")
}

func TestGetPrimaryScreenName(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)

	assert.Equal(t, "primary", s.GetPrimaryScreenName())
	assert.Equal(t, "primary", s.ActiveScreenName())
}

func TestOnHandshakeRejectsDuplicateAndPrimaryName(t *testing.T) {
	driver := primary.NewNoopDriver("primary")
	s, err := New(testConfig(), driver)
	require.NoError(t, err)

	assert.Error(t, s.onHandshake("primary", nil), "reserved primary name should be rejected")

	require.NoError(t, s.onHandshake("R", nil))
	assert.Error(t, s.onHandshake("R", nil), "duplicate screen name should be rejected")
}
