package registry_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/steps/scanfeed"
	"github.com/growloop/growloop/pkg/steps/selecttargets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateHandlerUnknownTypeIsTerminal(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())

	_, err := reg.CreateHandler(models.StepType("teleport"), nil)
	require.ErrorIs(t, err, registry.ErrUnsupportedStepType)
}

func TestCreateHandlerValidatesConfigAgainstSchema(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.Register(scanfeed.NewFactory())

	_, err := reg.CreateHandler(models.StepScanFeed, map[string]any{"limit": 500.0})
	require.ErrorIs(t, err, registry.ErrInvalidStepConfig)

	handler, err := reg.CreateHandler(models.StepScanFeed, map[string]any{"limit": 10.0})
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestCreateHandlerEmptySchemaAcceptsAnyConfig(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.Register(selecttargets.NewFactory())

	handler, err := reg.CreateHandler(models.StepSelectTargets, map[string]any{"whatever": 1})
	require.NoError(t, err)
	assert.NotNil(t, handler)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())

	message, healthy := reg.HealthCheck()
	assert.False(t, healthy)
	assert.Equal(t, "No step handlers registered", message)

	reg.Register(scanfeed.NewFactory())

	message, healthy = reg.HealthCheck()
	assert.True(t, healthy)
	assert.Contains(t, message, "1 step handlers registered")
}

func TestStepTypesListsRegistrations(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.Register(scanfeed.NewFactory())
	reg.Register(selecttargets.NewFactory())

	types := reg.StepTypes()
	assert.ElementsMatch(t, []models.StepType{models.StepScanFeed, models.StepSelectTargets}, types)
}

var _ protocol.HandlerFactory = (*scanfeed.Factory)(nil)
