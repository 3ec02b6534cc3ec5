package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerlint/layerlint/internal/cli/config"
	"github.com/layerlint/layerlint/internal/cli/output"
	"github.com/layerlint/layerlint/internal/cli/testutil"
	"github.com/layerlint/layerlint/internal/engine"
	"github.com/layerlint/layerlint/internal/graph"
	"github.com/layerlint/layerlint/pkg/core"
)

func TestNewGraphCommand(t *testing.T) {
	cmd := NewGraphCommand()

	assert.Equal(t, "graph", cmd.Use)
	assert.Equal(t, "Show the dependency graph", cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
}

// checkoutResult spans three features: checkout references shared code in
// common plus one sideways edge into profile.
func checkoutResult(t *testing.T) *engine.Result {
	t.Helper()

	units := []*core.Unit{
		{
			Name: "CheckoutScreen", File: "checkout/screens/checkout_screen.dart",
			Feature: "checkout", Layer: core.LayerUIScreen, Kind: core.KindClass,
			References: []string{"CheckoutCubit", "PriceLabel", "ProfileBadge"},
		},
		{
			Name: "CheckoutCubit", File: "checkout/cubits/checkout_cubit.dart",
			Feature: "checkout", Layer: core.LayerCubit, Kind: core.KindClass,
			References: []string{"CheckoutState"},
		},
		{
			Name: "CheckoutState", File: "checkout/states/checkout_state.dart",
			Feature: "checkout", Layer: core.LayerCubitState, Kind: core.KindClass,
		},
		{
			Name: "PriceLabel", File: "common/components/price_label.dart",
			Feature: "common", Layer: core.LayerUIComponent, Kind: core.KindClass,
		},
		{
			Name: "ProfileBadge", File: "profile/components/profile_badge.dart",
			Feature: "profile", Layer: core.LayerUIComponent, Kind: core.KindClass,
		},
	}

	built := graph.Build(units)
	require.Len(t, built.Edges, 4)

	files := []*core.FileInfo{
		{RelPath: "checkout/screens/checkout_screen.dart", Feature: "checkout"},
		{RelPath: "checkout/cubits/checkout_cubit.dart", Feature: "checkout"},
		{RelPath: "checkout/states/checkout_state.dart", Feature: "checkout"},
		{RelPath: "common/components/price_label.dart", Feature: "common"},
		{RelPath: "profile/components/profile_badge.dart", Feature: "profile"},
	}

	return &engine.Result{
		Root:     "/tmp/project",
		Features: []string{"checkout", "common", "profile"},
		Files:    files,
		Units:    built.Units,
		Edges:    built.Edges,
		Graph:    built.Graph,
		Stats: engine.RunStats{
			FilesIndexed: len(files),
			Units:        len(built.Units),
			Edges:        len(built.Edges),
		},
	}
}

func TestLayerStats(t *testing.T) {
	stats := layerStats(checkoutResult(t))

	// Idle layers are omitted; the rest keep rank order.
	require.Len(t, stats, 4)
	assert.Equal(t, output.LayerStats{Layer: "UI_SCREEN", Units: 1, Outgoing: 3, Incoming: 0}, stats[0])
	assert.Equal(t, output.LayerStats{Layer: "UI_COMPONENT", Units: 2, Outgoing: 0, Incoming: 2}, stats[1])
	assert.Equal(t, output.LayerStats{Layer: "CUBIT", Units: 1, Outgoing: 1, Incoming: 1}, stats[2])
	assert.Equal(t, output.LayerStats{Layer: "CUBIT_STATE", Units: 1, Outgoing: 0, Incoming: 1}, stats[3])
}

func TestFeatureStats(t *testing.T) {
	result := checkoutResult(t)

	stats := featureStats(result, "common")
	require.Len(t, stats, 3)
	assert.Equal(t, output.FeatureStats{Feature: "checkout", Files: 3, Units: 3, Edges: 4, External: 1}, stats[0])
	assert.Equal(t, output.FeatureStats{Feature: "common", Files: 1, Units: 1, Edges: 0, External: 0}, stats[1])
	assert.Equal(t, output.FeatureStats{Feature: "profile", Files: 1, Units: 1, Edges: 0, External: 0}, stats[2])

	// Renaming the common feature turns the shared-code edge external too.
	stats = featureStats(result, "shared")
	assert.Equal(t, 2, stats[0].External)
}

func TestGraphCommandMarkdown(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupTestProject(t)

	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(projectDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cmd := NewGraphCommand()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--format", "markdown"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "# Dependency Graph")
	assert.Contains(t, out, "## Layers")
	assert.Contains(t, out, "UI_SCREEN")
	assert.Contains(t, out, "## Features")
	assert.Contains(t, out, "booking")
	assert.Contains(t, out, "- **Total Units:** 4")
	assert.Contains(t, out, "- **Total Edges:** 2")
	assert.Contains(t, out, "- **Unresolved References:** 0")
	assert.NotContains(t, out, "Cycle")
}

func TestGraphCommandJSON(t *testing.T) {
	config.ResetConfig()
	projectDir := testutil.SetupTestProject(t)

	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(projectDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cmd := NewGraphCommand()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--format", "json"})

	require.NoError(t, cmd.Execute())

	var got output.GraphOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, 4, got.TotalUnits)
	assert.Equal(t, 2, got.TotalEdges)
	assert.Equal(t, 0, got.Unresolved)
	assert.Empty(t, got.Ambiguous)
	assert.Empty(t, got.Cycle)

	layers := make(map[string]output.LayerStats, len(got.Layers))
	for _, ls := range got.Layers {
		layers[ls.Layer] = ls
	}
	assert.Equal(t, 1, layers["UI_SCREEN"].Units)
	assert.Equal(t, 1, layers["CUBIT"].Outgoing)
	assert.Equal(t, 1, layers["CUBIT_STATE"].Incoming)
	assert.Equal(t, 1, layers["UNCLASSIFIED"].Units)

	require.Len(t, got.Features, 1)
	assert.Equal(t, "booking", got.Features[0].Feature)
	assert.Equal(t, 3, got.Features[0].Units)
	assert.Zero(t, got.Features[0].External)
}
