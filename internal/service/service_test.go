package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostMetrics(t *testing.T) {
	s := NewService(t.TempDir())
	m := s.GetHostMetrics()
	assert.NotNil(t, m)
	assert.GreaterOrEqual(t, m.MemoryUsage, 0.0)
	assert.GreaterOrEqual(t, s.Uptime(), int64(0))
}

func TestDefaultDiskPath(t *testing.T) {
	assert.Equal(t, "/", NewService("").diskPath)
}
