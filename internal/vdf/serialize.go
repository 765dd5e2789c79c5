package vdf

import (
	"bytes"
	"strings"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
)

// Serialize renders the tree in Steam's on-disk style: quoted keys, tab
// indentation, scalars as `"key"<tab><tab>"value"`, blocks on their own
// lines. Child order is preserved, so re-serializing an unmodified parse
// emits identical bytes on every run.
func Serialize(n *Node) []byte {
	var buf bytes.Buffer
	writeNode(&buf, n, 0)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, p := range n.pairs {
		if p.child == nil {
			buf.WriteString(indent)
			buf.WriteByte('"')
			escaper.WriteString(buf, p.key)
			buf.WriteString("\"\t\t\"")
			escaper.WriteString(buf, p.value)
			buf.WriteString("\"\n")
			continue
		}
		buf.WriteString(indent)
		buf.WriteByte('"')
		escaper.WriteString(buf, p.key)
		buf.WriteString("\"\n")
		buf.WriteString(indent)
		buf.WriteString("{\n")
		writeNode(buf, p.child, depth+1)
		buf.WriteString(indent)
		buf.WriteString("}\n")
	}
}
