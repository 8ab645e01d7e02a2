package kvs

import (
	"fmt"
	"net/netip"
	"strconv"
	"testing"

	"github.com/huynhanx03/recurvedb/pkg/hash"
	"github.com/huynhanx03/recurvedb/pkg/recurve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func open[K hash.Key](t *testing.T, folder string) *Store[K] {
	t.Helper()
	s, err := Open[K]("kv", folder, recurve.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWriteRead(t *testing.T) {
	s := open[string](t, t.TempDir())

	tests := []struct {
		key   string
		value string
	}{
		{key: "name", value: "recurve"},
		{key: "empty", value: ""},
		{key: "unicode", value: "héllo wörld"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, err := s.WriteString(tt.key, tt.value)
			require.NoError(t, err)

			got, ok, err := c.ReadString(tt.key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.value, got)
		})
	}

	c, err := s.Catalog()
	require.NoError(t, err)
	got, err := c.ReadOr("missing", "fail")
	require.NoError(t, err)
	assert.Equal(t, "fail", got)
}

func TestTextValues(t *testing.T) {
	s := open[int](t, t.TempDir())

	addr := netip.MustParseAddr("10.0.0.1")
	_, err := s.Write(1, addr)
	require.NoError(t, err)

	c, err := s.Catalog()
	require.NoError(t, err)

	var got netip.Addr
	ok, err := c.Read(1, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr, got)

	ok, err = c.Read(2, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadBadText(t *testing.T) {
	s := open[string](t, t.TempDir())
	_, err := s.WriteString("ip", "not an address")
	require.NoError(t, err)

	c, err := s.Catalog()
	require.NoError(t, err)
	var addr netip.Addr
	_, err = c.Read("ip", &addr)
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	folder := t.TempDir()

	s, err := Open[string]("kv", folder, recurve.Config{})
	require.NoError(t, err)
	_, err = s.WriteString("k", "v1")
	require.NoError(t, err)
	_, err = s.WriteString("k", "v2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = open[string](t, folder)
	c, err := s.Catalog()
	require.NoError(t, err)
	got, ok, err := c.ReadString("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestConcurrentWrites(t *testing.T) {
	s := open[int](t, t.TempDir())

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			_, err := s.WriteString(i, strconv.Itoa(i*i))
			return err
		})
	}
	require.NoError(t, g.Wait())

	c, err := s.Catalog()
	require.NoError(t, err)
	for i := 0; i < 32; i++ {
		got, ok, err := c.ReadString(i)
		require.NoError(t, err)
		require.True(t, ok, fmt.Sprint(i))
		assert.Equal(t, strconv.Itoa(i*i), got)
	}
}

func TestObjectID(t *testing.T) {
	assert.Equal(t, ObjectID("a"), ObjectID([]byte("a")))
	assert.NotEqual(t, ObjectID("a"), ObjectID("b"))
	assert.Regexp(t, `^key-[0-9a-f]{16}$`, ObjectID(12).Text)
}

func TestKeysSharingDigest(t *testing.T) {
	s := open[string](t, t.TempDir())

	// The object ids of these keys fold to the same trie digest.
	_, err := s.WriteString("k47095", "first")
	require.NoError(t, err)
	c, err := s.WriteString("k93642", "second")
	require.NoError(t, err)

	for key, want := range map[string]string{"k47095": "first", "k93642": "second"} {
		got, ok, err := c.ReadString(key)
		require.NoError(t, err)
		require.True(t, ok, key)
		assert.Equal(t, want, got)
	}
}
