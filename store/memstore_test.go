package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborix/bptree/bptreeerr"
	"github.com/arborix/bptree/common"
	"github.com/arborix/bptree/node"
)

func TestMemStoreWriteRead(t *testing.T) {
	s := NewMemStore()
	n := node.NewLeaf([]common.Value{1.0}, []common.Value{"a"})
	ptr, err := s.Write(n)
	require.NoError(t, err)
	require.False(t, ptr.IsNull())

	got, err := s.Read(ptr)
	require.NoError(t, err)
	require.True(t, n.Equal(got))
	require.Equal(t, 1, s.Len())
}

func TestMemStoreReadMissing(t *testing.T) {
	s := NewMemStore()
	_, err := s.Read(common.NewPointer("deadbeef"))
	require.True(t, bptreeerr.Is(err, bptreeerr.KindNotFound))
}

func TestMemStoreDelete(t *testing.T) {
	s := NewMemStore()
	n := node.NewLeaf(nil, nil)
	ptr, err := s.Write(n)
	require.NoError(t, err)
	require.True(t, s.Has(ptr))
	require.NoError(t, s.Delete(ptr))
	require.False(t, s.Has(ptr))
}

func TestMemStoreMetaRoundTrip(t *testing.T) {
	s := NewMemStore()
	_, ok, err := func() ([]byte, bool, error) {
		v, err := s.ReadMeta("x")
		return v, v != nil, err
	}()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.WriteMeta("x", []byte("root-ptr")).Wait())
	v, err := s.ReadMeta("x")
	require.NoError(t, err)
	require.Equal(t, []byte("root-ptr"), v)
}

func TestMemStoreContentAddressedDedup(t *testing.T) {
	s := NewMemStore()
	n1 := node.NewLeaf([]common.Value{1.0}, []common.Value{"a"})
	n2 := node.NewLeaf([]common.Value{1.0}, []common.Value{"a"})
	p1, err := s.Write(n1)
	require.NoError(t, err)
	p2, err := s.Write(n2)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Equal(t, 1, s.Len())
}
