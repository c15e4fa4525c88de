package ftpaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeAllDenied(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.mkdErr = replyDenied("MKD")
	f.storErr = replyDenied("STOR")

	rep, err := Probe(f, "d1", "f1")
	require.NoError(t, err)
	assert.Equal(t, PermissionReport{}, rep)

	// Nothing was created, so nothing should have been cleaned up.
	assert.Zero(t, f.countCalls("RMD"))
	assert.Zero(t, f.countCalls("DELE"))
}

func TestProbeAllAllowed(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())

	rep, err := Probe(f, "d1", "f1")
	require.NoError(t, err)
	assert.Equal(t, PermissionReport{
		CanCreateDir:  true,
		CanDeleteDir:  true,
		CanUploadFile: true,
		CanDeleteFile: true,
	}, rep)
	assert.Equal(t, []string{"MKD d1", "RMD d1", "STOR f1", "DELE f1"}, f.calls)
}

func TestProbeTransientCreateAborts(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.mkdErr = replyTemporary("MKD")

	rep, err := Probe(f, "d1", "f1")
	require.Error(t, err)
	assert.True(t, IsTemporary(err))
	assert.Equal(t, PermissionReport{}, rep)

	// A non-denial failure stops the probe before the upload phase.
	assert.Zero(t, f.countCalls("STOR"))
}

func TestProbeDeleteDenied(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.rmdErr = replyDenied("RMD")
	f.deleErr = replyDenied("DELE")

	rep, err := Probe(f, "d1", "f1")
	require.NoError(t, err)
	assert.Equal(t, PermissionReport{
		CanCreateDir:  true,
		CanUploadFile: true,
	}, rep)
}

func TestProbeTransientCleanupReturnsPartialReport(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.rmdErr = replyTemporary("RMD")

	rep, err := Probe(f, "d1", "f1")
	require.Error(t, err)
	assert.True(t, IsTemporary(err))

	// The create succeeded before the cleanup blew up; that much of the
	// report is still trustworthy.
	assert.True(t, rep.CanCreateDir)
	assert.False(t, rep.CanUploadFile)
	assert.Zero(t, f.countCalls("STOR"))
}

func TestNewProbeNames(t *testing.T) {
	t.Parallel()
	d1, f1 := NewProbeNames()
	d2, f2 := NewProbeNames()

	assert.True(t, len(d1) > len("audit-dir-"))
	assert.True(t, len(f1) > len("audit-file-"))
	assert.NotEqual(t, d1, d2)
	assert.NotEqual(t, f1, f2)
}
