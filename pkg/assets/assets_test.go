package assets

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/emcee/pkg/gpu"
)

func TestEmbeddedShadersLink(t *testing.T) {
	fsys := Shaders()

	vert, err := Read(fsys, WorldVertex)
	require.NoError(t, err)
	frag, err := Read(fsys, WorldFragment)
	require.NoError(t, err)
	portal, err := Read(fsys, PortalVertex)
	require.NoError(t, err)

	v, _, warnings, err := gpu.CheckProgram(gpu.ProgramSource{Name: "world", Vertex: vert, Fragment: frag})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	_, ok := v.Input(gpu.AttribFaceColor)
	assert.True(t, ok)

	v, _, warnings, err = gpu.CheckProgram(gpu.ProgramSource{Name: "portal", Vertex: portal, Fragment: frag})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	_, ok = v.Input(gpu.AttribFaceColor)
	assert.False(t, ok)
}

func TestReadMissing(t *testing.T) {
	_, err := Read(fstest.MapFS{}, WorldVertex)
	assert.Error(t, err)
}
