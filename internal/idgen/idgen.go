// Package idgen issues identifiers for print jobs and batches.
package idgen

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator issues job and batch identifiers.
type Generator interface {
	// JobID returns a time-ordered decimal id.
	JobID() string
	// BatchID returns a random id.
	BatchID() string
}

// Snowflake generates job ids from a snowflake node and batch ids from UUIDv4.
type Snowflake struct {
	node *snowflake.Node
}

// New creates a generator for the given node number (0-1023).
func New(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

// JobID implements Generator.
func (s *Snowflake) JobID() string {
	return strconv.FormatInt(s.node.Generate().Int64(), 10)
}

// BatchID implements Generator.
func (s *Snowflake) BatchID() string {
	return uuid.NewString()
}
