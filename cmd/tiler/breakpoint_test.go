package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/config"
)

func TestBreakPointResume(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bp")
	bp, err := newBreakPoint(dir, "world", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, bp.Len())

	a, b := cell.FromZXY(3, 1, 2), cell.FromFace(cell.S2, 4)
	bp.SetDone(a)
	bp.SetDone(b)
	assert.False(t, bp.IsDone(a), "ids of the current run are not reloaded")
	bp.Close()
	bp.Close()
	bp.SetDone(cell.FromZXY(1, 0, 0))

	bp, err = newBreakPoint(dir, "world", 1)
	require.NoError(t, err)
	defer bp.Close()
	assert.Equal(t, 2, bp.Len())
	assert.True(t, bp.IsDone(a))
	assert.True(t, bp.IsDone(b))
	assert.False(t, bp.IsDone(cell.FromZXY(1, 0, 0)))
}

func TestOpenBreakPointUsesBufSize(t *testing.T) {
	conf := &config.Conf{
		Task:       config.Task{Workers: 2, BufSize: 16},
		BreakPoint: config.BreakPoint{SaveFilePath: filepath.Join(t.TempDir(), "bp")},
		Tiler:      config.Tiler{Name: "world"},
	}
	bp, err := openBreakPoint(conf)
	require.NoError(t, err)
	defer bp.Close()
	assert.Equal(t, 16, cap(bp.saveChan))
	assert.FileExists(t, filepath.Join(conf.BreakPoint.SaveFilePath, "world.log"))
}
