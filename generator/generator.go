package generator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/bwmarrin/snowflake"
)

func IDbyIP(ip string) uint32 {
	var id uint32
	v4 := net.ParseIP(ip).To4()
	if v4 == nil {
		return 0
	}
	binary.Read(bytes.NewBuffer(v4), binary.BigEndian, &id)
	return id
}

// Generator hands out session ids of the form <site>_<snowflake>.
type Generator struct {
	node *snowflake.Node
}

// New derives the snowflake node from ip so concurrent hosts do not collide.
// An empty ip uses node 0.
func New(ip string) (*Generator, error) {
	n := int64(IDbyIP(ip) % uint32(1<<snowflake.NodeBits))
	node, err := snowflake.NewNode(n)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) SessionID(site string) string {
	return fmt.Sprintf("%s_%s", site, g.node.Generate().String())
}

var (
	once sync.Once
	std  *Generator
)

// SessionID uses a process-wide generator on node 0.
func SessionID(site string) string {
	once.Do(func() {
		std, _ = New("")
	})
	return std.SessionID(site)
}
