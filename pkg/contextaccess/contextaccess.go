// Package contextaccess provides hierarchical context data exchange between
// nodes of a function model.
package contextaccess

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNodeUnknown indicates a node id was never registered.
	ErrNodeUnknown = errors.New("node unknown")

	// ErrAccessDenied indicates the requesting node may not see the target.
	ErrAccessDenied = errors.New("context access denied")

	// ErrInvalidAccessLevel indicates an unsupported access level.
	ErrInvalidAccessLevel = errors.New("invalid access level")
)

// AccessLevel gates what a requesting node may do with a target's context.
type AccessLevel string

const (
	AccessLevelRead    AccessLevel = "read"
	AccessLevelWrite   AccessLevel = "write"
	AccessLevelExecute AccessLevel = "execute"
)

// Valid reports whether the level is one of the supported values.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessLevelRead, AccessLevelWrite, AccessLevelExecute:
		return true
	default:
		return false
	}
}

// Snapshot is a point-in-time copy of a node's context data. Mutating a
// snapshot never affects the service's stored data.
type Snapshot struct {
	TargetNodeID string           `json:"target_node_id"`
	AccessLevel  AccessLevel      `json:"access_level"`
	Data         map[string]Value `json:"data"`
	RetrievedAt  time.Time        `json:"retrieved_at"`
}

// Service is the collaborator contract consumed by the orchestration engine.
type Service interface {
	// NodeContext returns a snapshot of the target node's context data,
	// gated by the requesting node's position in the hierarchy and the
	// requested access level.
	NodeContext(ctx context.Context, requestingNodeID, targetNodeID string, level AccessLevel) (*Snapshot, error)
}

// AccessError wraps context-access failures with the participants involved.
type AccessError struct {
	RequestingNodeID string
	TargetNodeID     string
	Level            AccessLevel
	Err              error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("context access %s from %s to %s: %v",
		e.Level, e.RequestingNodeID, e.TargetNodeID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
