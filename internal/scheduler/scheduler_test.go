package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStart_WithoutReportFunction(t *testing.T) {
	s := New("")
	require.NoError(t, s.Start())
	require.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_RegistersJob(t *testing.T) {
	s := New("*/5 * * * *")
	s.SetReportFunction(func(context.Context) error { return nil })
	require.NoError(t, s.Start())
	require.True(t, s.IsRunning())
	s.Stop()
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New("not a schedule")
	s.SetReportFunction(func(context.Context) error { return nil })
	require.ErrorContains(t, s.Start(), "invalid report schedule")
	s.Stop()
}
