package storage

import (
	"context"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Store persists role assignments. One assignment is one (role, email) pair;
// an email may hold both roles.
type Store interface {
	ListRoleAssignments(ctx context.Context) ([]types.RoleAssignment, error)
	PutRoleAssignment(ctx context.Context, a types.RoleAssignment) error
	DeleteRoleAssignment(ctx context.Context, a types.RoleAssignment) error
	// ReplaceRoleAssignments drops every stored assignment and writes all
	ReplaceRoleAssignments(ctx context.Context, all []types.RoleAssignment) error
	Close() error
}

// NoopStore is a no-op implementation when persistence is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) ListRoleAssignments(context.Context) ([]types.RoleAssignment, error) {
	return nil, nil
}

func (s *NoopStore) PutRoleAssignment(context.Context, types.RoleAssignment) error {
	return nil
}

func (s *NoopStore) DeleteRoleAssignment(context.Context, types.RoleAssignment) error {
	return nil
}

func (s *NoopStore) ReplaceRoleAssignments(context.Context, []types.RoleAssignment) error {
	return nil
}

func (s *NoopStore) Close() error {
	return nil
}
