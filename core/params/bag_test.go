package params

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placeholderName = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

func TestNewBag(t *testing.T) {
	b := NewBag()
	assert.NotNil(t, b)
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Params())
}

func TestBag_Register(t *testing.T) {
	b := NewBag()
	p1 := b.Register(1)
	p2 := b.Register(2)

	assert.NotEqual(t, p1.Name, p2.Name)
	assert.Equal(t, "p", p1.Name)
	assert.Equal(t, "p_2", p2.Name)
	assert.Equal(t, "$p", p1.String())
	assert.Equal(t, map[string]any{"p": 1, "p_2": 2}, b.Params())
}

func TestBag_RegisterAs(t *testing.T) {
	tests := []struct {
		name     string
		hint     string
		expected string
	}{
		{"plain hint", "years", "years"},
		{"dotted property", "n.age", "n_age"},
		{"empty hint", "", "p"},
		{"only symbols", "$$", "p"},
		{"leading digit", "2fast", "p2fast"},
		{"dashes replaced", "first-name", "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBag()
			p := b.RegisterAs(tt.hint, true)
			assert.Equal(t, tt.expected, p.Name)
			assert.Regexp(t, placeholderName, p.Name)
		})
	}
}

func TestBag_CollidingHints(t *testing.T) {
	b := NewBag()
	first := b.RegisterAs("years", 7)
	second := b.RegisterAs("years", 8)
	third := b.RegisterAs("years", 9)

	assert.Equal(t, "years", first.Name)
	assert.Equal(t, "years_2", second.Name)
	assert.Equal(t, "years_3", third.Name)

	v, ok := b.Get("years_2")
	require.True(t, ok)
	assert.Equal(t, 8, v)
}

func TestBag_HintMatchingGeneratedSuffix(t *testing.T) {
	b := NewBag()
	b.RegisterAs("years", 1)
	b.RegisterAs("years_2", 2)
	p := b.RegisterAs("years", 3)

	assert.Equal(t, "years_3", p.Name)
	assert.Equal(t, 3, b.Len())
}

func TestBag_ParamsIsACopy(t *testing.T) {
	b := NewBag()
	b.RegisterAs("name", "Alice")

	snapshot := b.Params()
	snapshot["name"] = "Mallory"
	delete(snapshot, "name")

	v, ok := b.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestBag_ConcurrentRegistrationStaysUnique(t *testing.T) {
	b := NewBag()
	var wg sync.WaitGroup
	names := make(chan string, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names <- b.RegisterAs("x", i).Name
		}(i)
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{})
	for n := range names {
		_, dup := seen[n]
		assert.False(t, dup, "duplicate name %s", n)
		seen[n] = struct{}{}
	}
	assert.Equal(t, 200, b.Len())
}

func TestScope_TracksOwnParameters(t *testing.T) {
	b := NewBag()
	b.RegisterAs("outside", 0)

	s := b.Scope()
	p1 := s.Register("a", 1)
	p2 := s.Register("a", 2)

	assert.Same(t, b, s.Bag())
	assert.Equal(t, []*Parameter{p1, p2}, s.Parameters())
	assert.Equal(t, map[string]any{"a": 1, "a_2": 2}, s.Params())
	assert.Equal(t, 3, b.Len())
}
