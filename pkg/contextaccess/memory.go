package contextaccess

import (
	"context"
	"sync"
	"time"
)

// MemoryService is an in-memory implementation of Service keyed by node id.
// Visibility rules: a node always sees itself and its ancestors at any level;
// siblings (nodes sharing a parent) are visible read-only.
type MemoryService struct {
	mu      sync.RWMutex
	parents map[string]*string          // node id -> parent id, nil for roots
	data    map[string]map[string]Value // node id -> context data
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		parents: make(map[string]*string),
		data:    make(map[string]map[string]Value),
	}
}

// Register adds a node to the hierarchy. A nil parent registers a root.
// Re-registering moves the node under the new parent and keeps its data.
func (s *MemoryService) Register(nodeID string, parentID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parents[nodeID] = parentID
	if _, ok := s.data[nodeID]; !ok {
		s.data[nodeID] = make(map[string]Value)
	}
}

// SetValue stores a context value on a registered node.
func (s *MemoryService) SetValue(nodeID, key string, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.parents[nodeID]; !ok {
		return &AccessError{RequestingNodeID: nodeID, TargetNodeID: nodeID, Level: AccessLevelWrite, Err: ErrNodeUnknown}
	}

	s.data[nodeID][key] = value.clone()

	return nil
}

// NodeContext implements Service.
func (s *MemoryService) NodeContext(_ context.Context, requestingNodeID, targetNodeID string, level AccessLevel) (*Snapshot, error) {
	if !level.Valid() {
		return nil, &AccessError{
			RequestingNodeID: requestingNodeID,
			TargetNodeID:     targetNodeID,
			Level:            level,
			Err:              ErrInvalidAccessLevel,
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.parents[requestingNodeID]; !ok {
		return nil, s.accessError(requestingNodeID, targetNodeID, level, ErrNodeUnknown)
	}

	if _, ok := s.parents[targetNodeID]; !ok {
		return nil, s.accessError(requestingNodeID, targetNodeID, level, ErrNodeUnknown)
	}

	if !s.visible(requestingNodeID, targetNodeID, level) {
		return nil, s.accessError(requestingNodeID, targetNodeID, level, ErrAccessDenied)
	}

	stored := s.data[targetNodeID]

	snapshot := &Snapshot{
		TargetNodeID: targetNodeID,
		AccessLevel:  level,
		Data:         make(map[string]Value, len(stored)),
		RetrievedAt:  time.Now().UTC(),
	}
	for k, v := range stored {
		snapshot.Data[k] = v.clone()
	}

	return snapshot, nil
}

func (s *MemoryService) accessError(requestingNodeID, targetNodeID string, level AccessLevel, err error) error {
	return &AccessError{
		RequestingNodeID: requestingNodeID,
		TargetNodeID:     targetNodeID,
		Level:            level,
		Err:              err,
	}
}

// visible applies the hierarchy rules. Callers hold at least a read lock.
func (s *MemoryService) visible(requestingNodeID, targetNodeID string, level AccessLevel) bool {
	if requestingNodeID == targetNodeID {
		return true
	}

	if s.isAncestor(targetNodeID, requestingNodeID) {
		return true
	}

	// Siblings are read-only.
	if level == AccessLevelRead && s.siblings(requestingNodeID, targetNodeID) {
		return true
	}

	return false
}

// isAncestor reports whether candidate is an ancestor of node.
func (s *MemoryService) isAncestor(candidate, node string) bool {
	parent := s.parents[node]
	for parent != nil {
		if *parent == candidate {
			return true
		}

		parent = s.parents[*parent]
	}

	return false
}

func (s *MemoryService) siblings(a, b string) bool {
	parentA := s.parents[a]
	parentB := s.parents[b]

	return parentA != nil && parentB != nil && *parentA == *parentB
}
