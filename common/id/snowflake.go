// Package id generates task identifiers. Server and worker run with
// distinct node ids so ids never collide across processes.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init creates the generator node. The first call wins; later calls
// are no-ops, which keeps test setup idempotent.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NewString returns a time-ordered unique id in base-36, the form used
// for async task ids.
func NewString() string {
	return node.Generate().Base36()
}
