package vdf

// Node is one block of a VDF document: an ordered sequence of key/child
// pairs where a child is either a scalar string or a nested Node.
// Keys are unique among the direct children of a Node; setting an existing
// key overwrites its value in place, keeping its position.
type Node struct {
	pairs []pair
}

type pair struct {
	key   string
	value string
	child *Node // nil for scalar pairs
}

// NewNode returns an empty block.
func NewNode() *Node {
	return &Node{}
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.pairs)
}

// Keys returns the keys of the direct children in document order.
func (n *Node) Keys() []string {
	keys := make([]string, len(n.pairs))
	for i, p := range n.pairs {
		keys[i] = p.key
	}
	return keys
}

func (n *Node) find(key string) int {
	for i := range n.pairs {
		if n.pairs[i].key == key {
			return i
		}
	}
	return -1
}

// Get returns the scalar value for key. The second return is false when
// the key is absent or names a nested block.
func (n *Node) Get(key string) (string, bool) {
	i := n.find(key)
	if i < 0 || n.pairs[i].child != nil {
		return "", false
	}
	return n.pairs[i].value, true
}

// Child returns the nested block for key, or nil when the key is absent
// or names a scalar.
func (n *Node) Child(key string) *Node {
	i := n.find(key)
	if i < 0 {
		return nil
	}
	return n.pairs[i].child
}

// Set stores a scalar value under key. An existing entry keeps its
// position; a nested block under the same key is replaced by the scalar.
func (n *Node) Set(key, value string) {
	if i := n.find(key); i >= 0 {
		n.pairs[i] = pair{key: key, value: value}
		return
	}
	n.pairs = append(n.pairs, pair{key: key, value: value})
}

// SetChild returns the nested block under key, creating it (appended at
// the end) if the key is absent. A scalar under the same key is replaced.
func (n *Node) SetChild(key string) *Node {
	if i := n.find(key); i >= 0 {
		if n.pairs[i].child == nil {
			n.pairs[i] = pair{key: key, child: NewNode()}
		}
		return n.pairs[i].child
	}
	child := NewNode()
	n.pairs = append(n.pairs, pair{key: key, child: child})
	return child
}

// Delete removes the entry for key and reports whether it was present.
func (n *Node) Delete(key string) bool {
	i := n.find(key)
	if i < 0 {
		return false
	}
	n.pairs = append(n.pairs[:i], n.pairs[i+1:]...)
	return true
}

// Equal reports structural equality: same keys in the same order with
// equal scalar values and recursively equal blocks.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if len(n.pairs) != len(other.pairs) {
		return false
	}
	for i := range n.pairs {
		a, b := n.pairs[i], other.pairs[i]
		if a.key != b.key {
			return false
		}
		if (a.child == nil) != (b.child == nil) {
			return false
		}
		if a.child == nil {
			if a.value != b.value {
				return false
			}
		} else if !a.child.Equal(b.child) {
			return false
		}
	}
	return true
}
