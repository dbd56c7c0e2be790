package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/arborix/bptree/common"
)

// Encode serializes a node to bytes: a leaf flag byte, a key count, then
// length-prefixed JSON-encoded keys, followed by either length-prefixed
// JSON-encoded values (leaf) or length-prefixed pointer strings (internal).
// The pointer tag itself is never part of the encoding — it is derived from
// the encoded bytes by the store's hasher and set on the returned Node by
// Decode's caller.
func Encode(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	leafByte := byte(0)
	if n.Leaf {
		leafByte = 1
	}
	if err := buf.WriteByte(leafByte); err != nil {
		return nil, fmt.Errorf("node.Encode: %w", err)
	}
	if err := common.WriteUint32(&buf, uint32(len(n.Keys))); err != nil {
		return nil, fmt.Errorf("node.Encode: %w", err)
	}
	for _, k := range n.Keys {
		if err := writeValue(&buf, k); err != nil {
			return nil, fmt.Errorf("node.Encode: %w", err)
		}
	}
	if n.Leaf {
		for _, v := range n.Values {
			if err := writeValue(&buf, v); err != nil {
				return nil, fmt.Errorf("node.Encode: %w", err)
			}
		}
	} else {
		if err := common.WriteUint32(&buf, uint32(len(n.Children))); err != nil {
			return nil, fmt.Errorf("node.Encode: %w", err)
		}
		for _, c := range n.Children {
			if err := common.WriteBytes(&buf, []byte(c.String())); err != nil {
				return nil, fmt.Errorf("node.Encode: %w", err)
			}
		}
	}
	return buf.Bytes(), nil
}

func writeValue(w io.Writer, v common.Value) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return common.WriteBytes(w, b)
}

func readValue(r io.Reader) (common.Value, error) {
	b, err := common.ReadBytes(r)
	if err != nil {
		return nil, err
	}
	var v common.Value
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return normalizeJSON(v), nil
}

// normalizeJSON recursively converts encoding/json's generic []interface{}/
// map[string]interface{} decode shapes into the common.Value-typed
// []common.Value/map[string]common.Value shapes the comparator expects.
func normalizeJSON(v interface{}) common.Value {
	switch t := v.(type) {
	case []interface{}:
		out := make([]common.Value, len(t))
		for i, e := range t {
			out[i] = normalizeJSON(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]common.Value, len(t))
		for k, e := range t {
			out[k] = normalizeJSON(e)
		}
		return out
	default:
		return t
	}
}

// Decode deserializes bytes produced by Encode. The returned node's Ptr is
// left unset; callers that know the node's pointer (e.g. a store read by
// known pointer) set it explicitly.
func Decode(data []byte) (*Node, error) {
	r := bytes.NewReader(data)
	leafByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("node.Decode: %w", err)
	}
	n := &Node{Leaf: leafByte == 1}
	keyCount, err := common.ReadUint32(r)
	if err != nil {
		return nil, fmt.Errorf("node.Decode: %w", err)
	}
	n.Keys = make([]common.Value, keyCount)
	for i := range n.Keys {
		v, err := readValue(r)
		if err != nil {
			return nil, fmt.Errorf("node.Decode: %w", err)
		}
		n.Keys[i] = v
	}
	if n.Leaf {
		n.Values = make([]common.Value, keyCount)
		for i := range n.Values {
			v, err := readValue(r)
			if err != nil {
				return nil, fmt.Errorf("node.Decode: %w", err)
			}
			n.Values[i] = v
		}
	} else {
		childCount, err := common.ReadUint32(r)
		if err != nil {
			return nil, fmt.Errorf("node.Decode: %w", err)
		}
		n.Children = make([]common.Pointer, childCount)
		for i := range n.Children {
			b, err := common.ReadBytes(r)
			if err != nil {
				return nil, fmt.Errorf("node.Decode: %w", err)
			}
			n.Children[i] = common.Pointer(b)
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("node.Decode: %d trailing bytes not consumed", r.Len())
	}
	return n, nil
}
