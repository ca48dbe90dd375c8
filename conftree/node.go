// Package conftree reads and writes the configuration tree of an open
// device: a walk into a typed variant tree, a document projection of
// that tree, and a push of flattened path/value assignments back into
// the driver.
package conftree

import (
	"fmt"

	"github.com/sergev/spectran/driver"
)

// Kind is the type of a configuration node. Values match the driver ABI.
type Kind int32

const (
	KindOther Kind = iota
	KindGroup
	KindBlob
	KindNumber
	KindBool
	KindEnum
	KindString
)

func (k Kind) String() string {
	return driver.ConfigType(k).String()
}

// Supported reports whether the session layer can read and write the kind.
func (k Kind) Supported() bool {
	switch k {
	case KindGroup, KindNumber, KindBool, KindEnum, KindString:
		return true
	}
	return false
}

// Meta is the metadata of a configuration node.
type Meta struct {
	Name  string
	Title string
	Kind  Kind
	Unit  string
	Min   float64
	Max   float64
	Step  float64

	// Options holds the raw ';'-separated choices of an ENUM node.
	Options string

	// DisabledOptions is a bitmask over Options, passed through as is.
	DisabledOptions int64
}

func metaFromInfo(info *driver.ConfigInfo) Meta {
	return Meta{
		Name:            info.Name(),
		Title:           info.Title(),
		Kind:            Kind(info.Type),
		Unit:            info.Unit(),
		Min:             info.MinValue,
		Max:             info.MaxValue,
		Step:            info.StepValue,
		Options:         info.Options(),
		DisabledOptions: info.DisabledOptions,
	}
}

// Node is one node of a walked configuration tree.
type Node interface {
	Meta() *Meta
	isNode()
}

// Group is an interior node. Only groups have children.
type Group struct {
	Info     Meta
	Children []Node
}

// Number is a NUMBER leaf.
type Number struct {
	Info  Meta
	Value float64
}

// Bool is a BOOL leaf.
type Bool struct {
	Info  Meta
	Value bool
}

// String is a STRING leaf.
type String struct {
	Info  Meta
	Value string
}

// Enum is an ENUM leaf; the choices are in Info.Options.
type Enum struct {
	Info  Meta
	Value string
}

func (n *Group) Meta() *Meta  { return &n.Info }
func (n *Number) Meta() *Meta { return &n.Info }
func (n *Bool) Meta() *Meta   { return &n.Info }
func (n *String) Meta() *Meta { return &n.Info }
func (n *Enum) Meta() *Meta   { return &n.Info }

func (*Group) isNode()  {}
func (*Number) isNode() {}
func (*Bool) isNode()   {}
func (*String) isNode() {}
func (*Enum) isNode()   {}

// Child returns the direct child with the given name.
func (n *Group) Child(name string) Node {
	for _, c := range n.Children {
		if c.Meta().Name == name {
			return c
		}
	}
	return nil
}

// Value returns the value held by a leaf, or nil for a group.
func Value(n Node) any {
	switch n := n.(type) {
	case *Number:
		return n.Value
	case *Bool:
		return n.Value
	case *String:
		return n.Value
	case *Enum:
		return n.Value
	}
	return nil
}

// FormatValue renders a leaf value for display.
func FormatValue(n Node) string {
	switch n := n.(type) {
	case *Number:
		if n.Info.Unit != "" {
			return fmt.Sprintf("%g %s", n.Value, n.Info.Unit)
		}
		return fmt.Sprintf("%g", n.Value)
	case *Group:
		return ""
	}
	return fmt.Sprint(Value(n))
}
