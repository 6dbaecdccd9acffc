package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPicksReporter(t *testing.T) {
	var buf bytes.Buffer

	_, ok := New(&buf, false).(*LogReporter)
	require.True(t, ok)

	_, ok = New(&buf, true).(*Spinner)
	require.True(t, ok)
}

func TestSpinnerReportAndClose(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)

	s.Report("Build is currently queued...")
	s.Report("Build is currently working...")
	require.NoError(t, s.Close())
}
