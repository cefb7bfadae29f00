package probe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/registry"
)

func TestDefaults_RegistersInListingOrder(t *testing.T) {
	probes := Defaults(Deps{Out: &bytes.Buffer{}, Config: config.Default().Probes})
	reg, err := Register(registry.NewBuilder(), probes...).Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"create_test", "page_fault", "switch", "tcp_fin", "thread", "tls"}, reg.Names())
}

func TestDefaults_NamesStableAcrossBuilds(t *testing.T) {
	build := func() []string {
		probes := Defaults(Deps{Config: config.Default().Probes})
		return Register(registry.NewBuilder(), probes...).MustBuild().Names()
	}
	assert.Equal(t, build(), build())
}

func TestDefaults_WiresConfig(t *testing.T) {
	cfg := config.Default().Probes
	cfg.FaultMode = config.FaultModeTrap
	cfg.FSRoot = "/tmp/x"
	cfg.TCPEndpoint = "127.0.0.1:9"

	byName := map[string]Probe{}
	for _, p := range Defaults(Deps{Config: cfg}) {
		byName[p.Name()] = p
	}

	assert.True(t, byName["page_fault"].(*PageFault).Trap)
	assert.NotNil(t, byName["page_fault"].(*PageFault).mem)
	assert.Equal(t, "/tmp/x", byName["create_test"].(*FSRoundTrip).Root)
	assert.Equal(t, "127.0.0.1:9", byName["tcp_fin"].(*TCPFin).Endpoint)
}

func TestRegister_PageFaultTrapThroughRegistry(t *testing.T) {
	cfg := config.Default().Probes
	cfg.FaultMode = config.FaultModeTrap
	reg := Register(registry.NewBuilder(), Defaults(Deps{Out: &bytes.Buffer{}, Config: cfg})...).MustBuild()

	fn, ok := reg.Lookup("page_fault")
	require.True(t, ok)
	assert.NoError(t, fn())
}

func TestLockedWriter_NilTarget(t *testing.T) {
	w := &lockedWriter{}
	n, err := w.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}
