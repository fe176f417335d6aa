package id

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Len(t, id1.String(), 26)
}

func TestGenerateMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate().String()
	for i := 0; i < 100; i++ {
		next := gen.Generate().String()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{ResolvePrefix, FetchPrefix} {
		s := gen.GenerateWithPrefix(prefix)
		require.True(t, strings.HasPrefix(s, prefix+"_"), s)
		assert.True(t, IsValid(s))
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewResolveID().String(), "res_"))
	assert.True(t, strings.HasPrefix(NewFetchID().String(), "fetch_"))
}

func TestIsValid(t *testing.T) {
	gen := NewGenerator()

	assert.True(t, IsValid(gen.Generate().String()))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-ulid"))
	assert.False(t, IsValid("res_short"))
}

func TestTimestamp(t *testing.T) {
	gen := NewGeneratorWithEntropy(bytes.NewReader(make([]byte, 64)))
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	ts, err := Timestamp(gen.GenerateWithPrefix(ResolvePrefix))
	require.NoError(t, err)
	assert.True(t, fixed.Equal(ts.UTC()))

	_, err = Timestamp("garbage")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := gen.Generate().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
