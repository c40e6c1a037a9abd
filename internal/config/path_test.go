package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tally/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDatabasePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv("TALLY_DATA", "/opt/tally")
	t.Setenv("TALLY_UNSET", "")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "in memory", in: storage.MemoryPath, want: storage.MemoryPath},
		{name: "home", in: "~", want: home},
		{name: "under home", in: "~/tally.db", want: filepath.Join(home, "tally.db")},
		{name: "env var", in: "$TALLY_DATA/tally.db", want: "/opt/tally/tally.db"},
		{name: "absolute", in: "/abs/path.db", want: "/abs/path.db"},
		{name: "relative", in: "data/tally.db", want: filepath.Join(wd, "data/tally.db")},
		{name: "tilde mid path", in: "relative/~/x", want: filepath.Join(wd, "relative/~/x")},
		{name: "trimmed", in: "  /abs/path.db ", want: "/abs/path.db"},
		{name: "blank", in: "  ", wantErr: ErrEmptyDatabasePath},
		{name: "empty variable", in: "$TALLY_UNSET", wantErr: ErrEmptyDatabasePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDatabasePath(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
