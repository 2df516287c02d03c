package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"nodetree/application/ports"
	"nodetree/domain/core/entities"
	"nodetree/domain/core/valueobjects"
	pkgobs "nodetree/pkg/observability"
)

// TracedStore opens one span per store call
type TracedStore struct {
	inner  ports.NodeStore
	tracer *pkgobs.Tracer
}

// NewTracedStore wraps inner; backend names the store in span attributes.
func NewTracedStore(inner ports.NodeStore, backend string) *TracedStore {
	return &TracedStore{
		inner:  inner,
		tracer: pkgobs.NewTracer("nodestore." + backend),
	}
}

func (t *TracedStore) Create(ctx context.Context, name string, parent valueobjects.NodeID) (*entities.Node, error) {
	var node *entities.Node
	err := t.trace(ctx, "Create", func(ctx context.Context) error {
		var err error
		node, err = t.inner.Create(ctx, name, parent)
		if err == nil {
			t.tracer.AddAnnotation(ctx, "node.id", node.ID().String())
		}
		return err
	}, attribute.String("node.parent", parent.String()))
	return node, err
}

func (t *TracedStore) FindAll(ctx context.Context) ([]*entities.Node, error) {
	var nodes []*entities.Node
	err := t.trace(ctx, "FindAll", func(ctx context.Context) error {
		var err error
		nodes, err = t.inner.FindAll(ctx)
		return err
	})
	return nodes, err
}

func (t *TracedStore) FindByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	var node *entities.Node
	err := t.trace(ctx, "FindByID", func(ctx context.Context) error {
		var err error
		node, err = t.inner.FindByID(ctx, id)
		return err
	}, attribute.String("node.id", id.String()))
	return node, err
}

func (t *TracedStore) FindChildren(ctx context.Context, parentID valueobjects.NodeID) ([]*entities.Node, error) {
	var nodes []*entities.Node
	err := t.trace(ctx, "FindChildren", func(ctx context.Context) error {
		var err error
		nodes, err = t.inner.FindChildren(ctx, parentID)
		return err
	}, attribute.String("node.parent", parentID.String()))
	return nodes, err
}

func (t *TracedStore) DeleteByID(ctx context.Context, id valueobjects.NodeID) error {
	return t.trace(ctx, "DeleteByID", func(ctx context.Context) error {
		return t.inner.DeleteByID(ctx, id)
	}, attribute.String("node.id", id.String()))
}

func (t *TracedStore) Rename(ctx context.Context, id valueobjects.NodeID, name string) (*entities.Node, error) {
	var node *entities.Node
	err := t.trace(ctx, "Rename", func(ctx context.Context) error {
		var err error
		node, err = t.inner.Rename(ctx, id, name)
		return err
	}, attribute.String("node.id", id.String()))
	return node, err
}

func (t *TracedStore) Ping(ctx context.Context) error {
	hc, ok := t.inner.(ports.HealthChecker)
	if !ok {
		return nil
	}
	return t.trace(ctx, "Ping", hc.Ping)
}

func (t *TracedStore) trace(ctx context.Context, op string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := t.tracer.StartSpan(ctx, op, attrs...)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		pkgobs.RecordError(span, err)
	}
	return err
}

var (
	_ ports.NodeStore     = (*TracedStore)(nil)
	_ ports.HealthChecker = (*TracedStore)(nil)
)
