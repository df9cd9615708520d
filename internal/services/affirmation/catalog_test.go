package affirmation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Openings, 10)
	assert.Len(t, c.Cores, 16)
	assert.Len(t, c.Endings, 16)
	assert.Equal(t, 2560, c.Size())
}

func TestDefaultCatalog_AllCombinationsDistinct(t *testing.T) {
	c := DefaultCatalog()
	texts := make(map[string]struct{}, c.Size())
	fingerprints := make(map[string]struct{}, c.Size())
	for _, o := range c.Openings {
		for _, core := range c.Cores {
			for _, e := range c.Endings {
				text := o + " " + core + e
				texts[text] = struct{}{}
				fingerprints[Fingerprint(text)] = struct{}{}
			}
		}
	}
	assert.Len(t, texts, c.Size())
	assert.Len(t, fingerprints, c.Size())
}

func TestLoadCatalog(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Catalog
		wantErr bool
	}{
		{
			name: "valid",
			content: `
openings: ["a", "b"]
cores: ["c"]
endings: [". d", ". e", ". f"]
`,
			want: Catalog{
				Openings: []string{"a", "b"},
				Cores:    []string{"c"},
				Endings:  []string{". d", ". e", ". f"},
			},
		},
		{
			name: "empty slot",
			content: `
openings: ["a"]
cores: []
endings: [". d"]
`,
			wantErr: true,
		},
		{
			name:    "broken yaml",
			content: "openings: [a\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			got, err := LoadCatalog(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 6, got.Size())
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
