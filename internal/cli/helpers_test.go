package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/driver"
	"github.com/hindsightlab/hindsight/internal/store"
)

// writeScript writes one script under dir and returns its path.
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// archiveTrace runs script text under the name archived.hsl and saves
// the trace at dbPath, returning the new session id.
func archiveTrace(t *testing.T, dbPath, script, label string) string {
	t.Helper()

	d := driver.New(driver.Options{Stdout: io.Discard})
	_, err := d.Run(script, "archived.hsl", nil)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()

	id, err := st.SaveSession(context.Background(), d.Recorder(), label)
	require.NoError(t, err)
	return id
}
