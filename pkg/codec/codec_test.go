package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Name   string
	Tags   []string
	Fields map[string]int
	Next   *event
}

func TestDeepCopy_SharesNoMemory(t *testing.T) {
	t.Parallel()

	original := event{
		Name:   "greeting",
		Tags:   []string{"a", "b"},
		Fields: map[string]int{"n": 1},
		Next:   &event{Name: "child"},
	}

	copied, err := DeepCopy(original)
	require.NoError(t, err)
	assert.Equal(t, original, copied)

	copied.Tags[0] = "changed"
	copied.Fields["n"] = 2
	copied.Next.Name = "other"

	assert.Equal(t, "a", original.Tags[0])
	assert.Equal(t, 1, original.Fields["n"])
	assert.Equal(t, "child", original.Next.Name)
}

func TestMarshal_Deterministic(t *testing.T) {
	t.Parallel()

	a, err := Marshal(map[string]int{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)
	b, err := Marshal(map[string]int{"m": 3, "z": 1, "a": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestUnmarshal_AnyUsesStringMaps(t *testing.T) {
	t.Parallel()

	data, err := Marshal(map[string]any{"k": "v"})
	require.NoError(t, err)

	var out any
	require.NoError(t, Unmarshal(data, &out))

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v", m["k"])
}

func TestDeepCopy_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := DeepCopy(make(chan int))
	assert.Error(t, err)
}
