// catalog.go — The tool catalog: name → Tool resolution and tools/list.
// Built once at startup and read-only afterwards, so lookups need no lock.
package tools

import (
	"fmt"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
)

// Catalog resolves tool names and lists descriptors in registration order.
type Catalog struct {
	order  []string
	byName map[string]Tool
}

// NewCatalog builds a catalog from the given tools. Duplicate names are a
// programming error and panic at startup rather than shadowing silently.
func NewCatalog(ts ...Tool) *Catalog {
	c := &Catalog{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if _, dup := c.byName[t.Name()]; dup {
			panic(fmt.Sprintf("tools: duplicate tool name %q", t.Name()))
		}
		c.byName[t.Name()] = t
		c.order = append(c.order, t.Name())
	}
	return c
}

// Default returns the catalog of canvas tools this server ships.
func Default() *Catalog {
	return NewCatalog(
		&getDocumentInfo{},
		&getSelection{},
		&getNodeInfo{},
		&createRectangle{},
		&createFrame{},
		&createText{},
		&setFillColor{},
		&moveNode{},
		&resizeNode{},
		&deleteNode{},
		&setTextContent{},
		&exportNodeAsImage{},
	)
}

// Get resolves a tool by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Describe returns descriptors for all tools in registration order.
func (c *Catalog) Describe() []mcp.ToolDescriptor {
	out := make([]mcp.ToolDescriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name].Describe())
	}
	return out
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	return len(c.order)
}
