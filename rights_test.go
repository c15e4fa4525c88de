package ftpaudit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaxRights(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		lines []string
		dir   int
		file  int
	}{
		{
			name: "basic",
			lines: []string{
				"drwxr-xr-x    2 ftp      ftp          4096 Jan 10 10:00 pub",
				"-rw-r--r--    1 ftp      ftp           120 Jan 10 10:00 readme.txt",
			},
			dir:  755,
			file: 644,
		},
		{
			name: "union across entries",
			lines: []string{
				"drwx------    2 ftp      ftp          4096 Jan 10 10:00 private",
				"d---r-xr-x    5 ftp      ftp          4096 Jan 10 10:00 shared",
			},
			dir:  775,
			file: -1,
		},
		{
			name: "symlinks skipped",
			lines: []string{
				"lrwxrwxrwx    1 ftp      ftp             7 Jan 10 10:00 current -> pub/new",
				"-r--------    1 ftp      ftp            12 Jan 10 10:00 secret.key",
			},
			dir:  -1,
			file: 400,
		},
		{
			name: "setuid counts as exec",
			lines: []string{
				"-rwsr-xr--    1 root     root         5120 Jan 10 10:00 helper",
			},
			dir:  -1,
			file: 754,
		},
		{
			name: "short lines ignored",
			lines: []string{
				"total 12",
				"drwxrwxrwx",
				"-rw-rw-rw-    1 ftp      ftp             0 Jan 10 10:00 drop.txt",
			},
			dir:  -1,
			file: 666,
		},
		{
			name:  "empty listing",
			lines: nil,
			dir:   -1,
			file:  -1,
		},
		{
			name: "other entry kinds skipped",
			lines: []string{
				"crw-rw-rw-    1 root     root       1,   3 Jan 10 10:00 null",
				"brw-rw----    1 root     disk       8,   0 Jan 10 10:00 sda",
			},
			dir:  -1,
			file: -1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir, file := ParseMaxRights(tt.lines)
			assert.Equal(t, tt.dir, dir, "dir rights")
			assert.Equal(t, tt.file, file, "file rights")
		})
	}
}

func TestMaxRightsDeniedListing(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.linesErr = replyDenied("LIST")

	dir, file, err := MaxRights(f)
	require.NoError(t, err)
	assert.Equal(t, -1, dir)
	assert.Equal(t, -1, file)
}

func TestMaxRightsTransientFailurePropagates(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.linesErr = replyTemporary("LIST")

	_, _, err := MaxRights(f)
	require.Error(t, err)
	assert.True(t, IsTemporary(err))
}

func FuzzParseMaxRights(f *testing.F) {
	f.Add("drwxr-xr-x    2 ftp ftp 4096 Jan 10 10:00 pub")
	f.Add("-rw-r--r--    1 ftp ftp  120 Jan 10 10:00 readme.txt")
	f.Add("lrwxrwxrwx    1 ftp ftp    7 Jan 10 10:00 cur -> pub")
	f.Add("total 12")
	f.Add("")

	f.Fuzz(func(t *testing.T, line string) {
		dir, file := ParseMaxRights([]string{line})
		for _, rights := range []int{dir, file} {
			if rights == -1 {
				continue
			}
			if rights < 0 || rights > 777 {
				t.Errorf("rights %d out of range for line %q", rights, line)
			}
			for _, digit := range []int{rights / 100, rights / 10 % 10, rights % 10} {
				if digit > 7 {
					t.Errorf("rights digit %d out of range in %d for line %q", digit, rights, line)
				}
			}
		}
	})
}

func TestMaxRightsUsesListing(t *testing.T) {
	t.Parallel()
	f := newFakeRemote(newFakeDir())
	f.lines = []string{
		"drwxr-x---    2 ftp      ftp          4096 Jan 10 10:00 pub",
		"-rw-------    1 ftp      ftp            64 Jan 10 10:00 notes.txt",
	}

	dir, file, err := MaxRights(f)
	require.NoError(t, err)
	assert.Equal(t, 750, dir)
	assert.Equal(t, 600, file)
}
