package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactsMustHaveUniqueName(t *testing.T) {
	fs := New(F("foo", 1), F("foo", 2))

	assert.Equal(t, 1, fs.Len())
	assert.True(t, Holds(fs, "foo", func(v int) bool { return v == 1 }))
}

func TestAdd(t *testing.T) {
	fs := New()

	assert.True(t, fs.Add(F("foo", 1)))
	assert.True(t, fs.Add(F("bar", 2)))
	assert.False(t, fs.Add(F("foo", 3)), "duplicate name must be collapsed to the first")

	assert.Equal(t, []Fact{F("foo", 1), F("bar", 2)}, fs.Slice())
}

func TestPut(t *testing.T) {
	fs := New()
	fs.Put("foo", 1)
	fs.Put("bar", 2)
	fs.Put("foo", 3)

	assert.Equal(t, []Fact{F("foo", 3), F("bar", 2)}, fs.Slice(), "overwrite keeps the original slot")
}

func TestZeroValueStoreIsUsable(t *testing.T) {
	var fs Facts
	fs.Put("foo", true)

	assert.True(t, fs.IsTrue("foo"))
}

func TestRemove(t *testing.T) {
	foo := F("foo", 1)
	fs := New(foo)

	fs.RemoveFact(foo)

	assert.Zero(t, fs.Len())
}

func TestRemoveByName(t *testing.T) {
	fs := New(F("foo", 1), F("bar", 2))

	fs.Remove("foo")
	fs.Remove("missing")

	assert.Equal(t, []string{"bar"}, fs.Names())
}

func TestGet(t *testing.T) {
	fs := New(F("foo", 1))

	v, err := fs.Get("foo")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = fs.Get("bar")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetTyped(t *testing.T) {
	fs := New(F("foo", 1), F("name", "rulekit"), F("nothing", nil))

	n, err := Get[int](fs, "foo")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = Get[string](fs, "foo")
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))

	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "foo", tm.Name)
	assert.Equal(t, "string", tm.Requested)
	assert.Equal(t, "int", tm.Stored)

	_, err = Get[string](fs, "missing")
	assert.True(t, IsNotFound(err))

	v, err := Get[any](fs, "nothing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestGetFact(t *testing.T) {
	fact := F("foo", 1)
	fs := New(fact)

	got, err := fs.GetFact("foo")
	require.NoError(t, err)
	assert.Equal(t, fact, got)

	_, err = fs.GetFact("bar")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "bar", nf.Name)
}

func TestClear(t *testing.T) {
	fs := New(F("foo", 1), F("bar", 2))

	fs.Clear()

	assert.Zero(t, fs.Len())
	assert.Empty(t, fs.Slice())
	assert.False(t, fs.Has("foo"))
}

func TestIsTrue(t *testing.T) {
	fs := New(F("rain", true), F("sun", false), F("count", 1))

	tests := []struct {
		name  string
		fact  string
		preds []func(bool) bool
		want  bool
	}{
		{name: "true fact", fact: "rain", want: true},
		{name: "false fact", fact: "sun", want: false},
		{name: "absent fact", fact: "snow", want: false},
		{name: "non-bool fact", fact: "count", want: false},
		{name: "custom predicate", fact: "sun", preds: []func(bool) bool{func(b bool) bool { return !b }}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, fs.IsTrue(tt.fact, tt.preds...))
			})
		})
	}
}

func TestFromMapIsSorted(t *testing.T) {
	fs := FromMap(map[string]any{"c": 3, "a": 1, "b": 2})

	assert.Equal(t, []string{"a", "b", "c"}, fs.Names())
}

func TestAsMapIsCopy(t *testing.T) {
	fs := New(F("foo", 1))

	m := fs.AsMap()
	m["bar"] = 2

	assert.False(t, fs.Has("bar"))
}

func TestAllStopsEarly(t *testing.T) {
	fs := New(F("a", 1), F("b", 2), F("c", 3))

	var seen []string
	for f := range fs.All() {
		seen = append(seen, f.Name)
		if f.Name == "b" {
			break
		}
	}

	assert.Equal(t, []string{"a", "b"}, seen)
}
