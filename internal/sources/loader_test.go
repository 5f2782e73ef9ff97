package sources_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partywatch/partycrawl/internal/sources"
)

func writeTargetsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTargets(t *testing.T) {
	t.Parallel()

	path := writeTargetsFile(t, `
sources:
  - id: justice21-commentary
    party: 정의당
    site: justice21
    category: 브리핑
    list_url: https://www.justice21.org/newhome/board/board.html?bbs_code=JS21
  - id: kgreens-press
    party: 녹색당
    site: kgreens
    category: 보도자료
    list_url: https://www.kgreens.org/press/
`)

	targets, err := sources.LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.Equal(t, "justice21-commentary", targets[0].ID)
	assert.Equal(t, "정의당", targets[0].Party)
	assert.Equal(t, "justice21", targets[0].Site)
	assert.Equal(t, "https://www.kgreens.org/press/", targets[1].ListURL)
}

func TestLoadTargetsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "empty file",
			content: "sources: []\n",
			errText: "no targets",
		},
		{
			name: "unknown site",
			content: `
sources:
  - {id: a, party: p, site: nosuchsite, category: c, list_url: https://example.org/}
`,
			errText: "no adapter registered",
		},
		{
			name: "missing list_url",
			content: `
sources:
  - {id: a, party: p, site: kgreens, category: c}
`,
			errText: "list_url",
		},
		{
			name: "bad scheme",
			content: `
sources:
  - {id: a, party: p, site: kgreens, category: c, list_url: "ftp://example.org/x"}
`,
			errText: "scheme",
		},
		{
			name: "duplicate id",
			content: `
sources:
  - {id: a, party: p, site: kgreens, category: c, list_url: https://example.org/}
  - {id: a, party: p, site: kgreens, category: c, list_url: https://example.org/2}
`,
			errText: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := sources.LoadTargets(writeTargetsFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadTargetsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := sources.LoadTargets(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
