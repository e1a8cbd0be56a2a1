package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func relPaths(files []DocFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelativePath)
	}
	return out
}

func TestDiscoverDocs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.md":                     "---\n---\n",
		"a.md":                     "---\n---\n",
		"notes/_index.md":          "---\n---\n",
		"notes/zeta.markdown":      "---\n---\n",
		"notes/readme.txt":         "not markdown",
		"dailies/today.md":         "---\n---\n",
		"deep/private/secret.md":   "---\n---\n",
		"deep/public/visible.md":   "---\n---\n",
		"drafts/wip.draft.md":      "---\n---\n",
		".hidden/x.md":             "---\n---\n",
		".dotfile.md":              "---\n---\n",
		"_marksite/templates/a.md": "---\n---\n",
		"_marksite/_site/page.md":  "---\n---\n",
		"dailiesandmore/kept.md":   "---\n---\n",
	})

	d := NewDiscovery(root,
		[]string{"dailies", "deep/private"},
		[]string{"*.draft.md"},
		filepath.Join(root, "_marksite"))
	files, err := d.DiscoverDocs(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.md",
		"b.md",
		"dailiesandmore/kept.md",
		"deep/public/visible.md",
		"notes/_index.md",
		"notes/zeta.markdown",
	}, relPaths(files))

	require.NoError(t, files[0].LoadContent())
	src := files[0].Source()
	assert.Equal(t, "a.md", src.RelPath)
	assert.Equal(t, "---\n---\n", string(src.Content))
	assert.False(t, src.ModTime.IsZero())
}

func TestDiscoverDocs_Empty(t *testing.T) {
	files, err := NewDiscovery(t.TempDir(), nil, nil).DiscoverDocs(t.Context())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverDocs_Canceled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "x"})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewDiscovery(root, nil, nil).DiscoverDocs(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIgnored(t *testing.T) {
	root := t.TempDir()
	d := NewDiscovery(root, []string{"private"}, []string{"tmp/", "*.bak.md"})

	tests := []struct {
		rel  string
		want bool
	}{
		{"private/a.md", true},
		{"private", true},
		{"privateer/a.md", false},
		{"tmp/x.md", true},
		{"notes/old.bak.md", true},
		{"notes/new.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Ignored(filepath.Join(root, filepath.FromSlash(tt.rel))))
		})
	}
}

func TestLoadContent_Missing(t *testing.T) {
	df := DocFile{Path: filepath.Join(t.TempDir(), "gone.md")}
	require.Error(t, df.LoadContent())
}
