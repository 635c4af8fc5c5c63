package model

import (
	"context"
	"fmt"

	"github.com/syssam/arecord/schema"
	"github.com/syssam/arecord/schema/edge"
)

// Relation loads the entities on the far side of one declared edge.
type Relation[R Entity] struct {
	edge    *edge.Descriptor
	related *Model[R]
}

// NewRelation resolves the named edge of owner. The edge must target the
// related model's entity.
func NewRelation[R Entity](owner *schema.Entity, name string, related *Model[R]) (*Relation[R], error) {
	e, ok := owner.Edge(name)
	if !ok {
		return nil, fmt.Errorf("model: %s has no edge %q", owner.Name, name)
	}
	if e.Target != related.entity.Name {
		return nil, fmt.Errorf("model: edge %s.%s targets %s, not %s", owner.Name, name, e.Target, related.entity.Name)
	}
	return &Relation[R]{edge: e, related: related}, nil
}

// Edge returns the resolved edge.
func (r *Relation[R]) Edge() *edge.Descriptor { return r.edge }

// Get loads the related entities of parent.
//
// Has-many selects the related rows whose foreign key equals the parent's
// local key. Belongs-to finds the related row whose primary key equals the
// parent's foreign key value (for a post, its user_id), not the parent's own
// local key, and yields at most one entity. Has-one and
// many-to-many are not implemented and load nothing.
func (r *Relation[R]) Get(ctx context.Context, parent Entity) ([]R, error) {
	values := parent.Values()
	switch r.edge.Kind {
	case edge.KindHasMany:
		key := values[r.edge.LocalKey]
		if key == nil {
			return nil, nil
		}
		return r.related.Get(ctx, r.related.Query().Where(r.edge.ForeignKey, "=", key))
	case edge.KindBelongsTo:
		key := values[r.edge.ForeignKey]
		if key == nil {
			return nil, nil
		}
		v, ok, err := r.related.find(ctx, key)
		if err != nil || !ok {
			return nil, err
		}
		return []R{v}, nil
	default:
		return nil, nil
	}
}

// First is like Get but returns only the first entity, or the zero R.
func (r *Relation[R]) First(ctx context.Context, parent Entity) (R, error) {
	var zero R
	vs, err := r.Get(ctx, parent)
	if err != nil || len(vs) == 0 {
		return zero, err
	}
	return vs[0], nil
}
