package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashdeck/internal/app"
	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/logging"
	"github.com/conorfennell/flashdeck/internal/storage"
)

func newRunner(t *testing.T) (*Runner, *deck.Repository) {
	t.Helper()
	repo := deck.New(storage.NewMemoryStore())
	r := NewRunner(app.New(repo), t.TempDir(), logging.Discard())
	return r, repo
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_SingleFile(t *testing.T) {
	r, repo := newRunner(t)
	path := filepath.Join(t.TempDir(), "deck.json")
	writeFile(t, path, `[{"id":"a","front":"f","back":"b"}]`)

	res, err := r.Run(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)

	cards, err := repo.List()
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "a", cards[0].ID)
}

func TestRun_Directory(t *testing.T) {
	r, repo := newRunner(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"front":"json","back":"1"}]`)
	writeFile(t, filepath.Join(dir, "nested", "b.yaml"), "- front: yaml\n  back: \"2\"\n")
	writeFile(t, filepath.Join(dir, "c.md"), "Q: markdown\nA: 3\n")
	writeFile(t, filepath.Join(dir, "broken.json"), `{"not":"a list"}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	res, err := r.Run(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Accepted)

	cards, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	_, err = r.Run(dir, Options{})
	require.NoError(t, err)
	cards, err = repo.List()
	require.NoError(t, err)
	assert.Len(t, cards, 5, "markdown ids are stable, json/yaml records without ids are added again")
}

func TestRun_GitSourceUsesFetch(t *testing.T) {
	r, repo := newRunner(t)

	var fetched string
	r.Fetch = func(url, localPath string) error {
		fetched = url
		writeFile(t, filepath.Join(localPath, "decks", "go.json"), `[{"id":"g","front":"go","back":"lang"}]`)
		return nil
	}

	res, err := r.Run("https://github.com/example/decks.git", Options{File: "decks/go.json"})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/example/decks.git", fetched)
	assert.Equal(t, 1, res.Accepted)

	cards, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, "g", cards[0].ID)
}

func TestRun_GitSourceOutsideReposDir(t *testing.T) {
	r, _ := newRunner(t)
	r.Fetch = func(url, localPath string) error {
		t.Fatalf("fetch must not run for %s", url)
		return nil
	}

	_, err := r.Run("https://example.com/../../escape.git", Options{})
	assert.Error(t, err)
}

func TestRun_MissingSource(t *testing.T) {
	r, _ := newRunner(t)
	_, err := r.Run(filepath.Join(t.TempDir(), "nope.json"), Options{})
	assert.Error(t, err)
}

func TestIsGitSource(t *testing.T) {
	assert.True(t, IsGitSource("git@github.com:user/repo.git"))
	assert.True(t, IsGitSource("https://github.com/user/repo"))
	assert.False(t, IsGitSource("./decks/spanish.json"))
}

func TestGitURLToLocalPath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/user/repo.git", filepath.Join("repos", "github.com", "user", "repo")},
		{"git@github.com:user/repo.git", filepath.Join("repos", "github.com", "user", "repo")},
		{"/srv/git/decks.git", filepath.Join("repos", "local", "decks")},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := gitURLToLocalPath("repos", tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{
		"https://h/../../x.git",
		"git@host:../../../etc.git",
		"https://h/..",
	} {
		_, err := gitURLToLocalPath("repos", bad)
		assert.ErrorContains(t, err, "resolves outside", bad)
	}

	_, err := gitURLToLocalPath("repos", "not a url")
	assert.True(t, err != nil && strings.Contains(err.Error(), "could not parse"))
}
