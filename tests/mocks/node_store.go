// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	"nodetree/domain/events"
)

// MockNodeStore is a mock implementation of ports.NodeStore
type MockNodeStore struct {
	mock.Mock
}

func (m *MockNodeStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	args := m.Called(ctx, name, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Node), args.Error(1)
}

func (m *MockNodeStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Node), args.Error(1)
}

func (m *MockNodeStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNodeStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

var (
	_ ports.NodeStore      = (*MockNodeStore)(nil)
	_ ports.EventPublisher = (*MockEventPublisher)(nil)
)
