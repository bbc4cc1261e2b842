package profile

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerFollowsWeights(t *testing.T) {
	s := NewSampler([]Entry{{"a", 8}, {"b", 2}, {"zero", 0}, {"neg", -3}})
	require.NotNil(t, s)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Values())

	rng := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		counts[s.Draw(rng)]++
	}
	assert.Len(t, counts, 2)
	assert.InDelta(t, 0.8, float64(counts["a"])/10000, 0.03)
}

func TestNewSamplerEmpty(t *testing.T) {
	assert.Nil(t, NewSampler(nil))
	assert.Nil(t, NewSampler([]Entry{{"x", 0}}))
}

func TestProfileFor(t *testing.T) {
	p := Profile{"users.country": {{"DE", 1}}}
	assert.Len(t, p.For("users", "country"), 1)
	assert.Nil(t, p.For("users", "city"))
	assert.Nil(t, Profile(nil).For("users", "country"))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")
	p := Profile{
		"users.country": {{"DE", 40}, {"FR", 12}},
		"orders.status": {{"paid", 3}},
	}
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write("bad.yaml", "users.country: [ {value: "))
	assert.Error(t, err)

	_, err = Load(write("unqualified.yaml", "country:\n  - {value: DE, weight: 1}\n"))
	assert.Error(t, err)

	_, err = Load(write("negative.yaml", "users.country:\n  - {value: DE, weight: -1}\n"))
	assert.Error(t, err)
}
