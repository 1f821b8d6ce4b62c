package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewScreenShotDebugger_Disabled(t *testing.T) {
	var s *ScreenShotDebugger = NewScreenShotDebugger("")
	assert.Nil(t, s)
	assert.NoError(t, s.CaptureAndLog(nil, "x", "nothing"))
}

func TestScreenShotDebugger_FileName(t *testing.T) {
	dir := t.TempDir()
	s := NewScreenShotDebugger(dir)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := s.FileName("upwork-timeout/Web Data", ts)
	assert.Equal(t, filepath.Join(dir, "upwork-timeout_Web_Data_2024-01-02_03-04-05.png"), got)
}
