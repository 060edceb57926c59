// Join resolution (spec section 4.8). Joins are stateless descriptors
// that resolve their target partition by name through the parent
// registry on every call — never a shared object reference (spec
// section 3, "Ownership"; section 9, "Cyclic partition references").
package partition

import (
	"fmt"

	"github.com/cloudfs/cloudfs/internal/model"
)

// Target is the narrow surface a join needs from whatever partition it
// resolves against. A *Plain partition satisfies it directly; joins
// always treat targets as plain (spec section 6).
type Target interface {
	Get(key string) (any, bool)
	Data() (map[string]any, error)
}

// Registry is the late-binding lookup a join uses to find its target
// partition by name. Implemented by internal/registry.Registry.
type Registry interface {
	GetPartitionByName(name string) (Target, error)
}

// joinSpec is one registered join descriptor.
type joinSpec struct {
	db         Registry
	joinName   string
	leftField  string
	rightField string // empty means "no right field": use target.Get directly
}

func newJoinSpec(db Registry, joinName, leftField, rightField string) (*joinSpec, error) {
	if db == nil || joinName == "" || leftField == "" {
		return nil, fmt.Errorf("%w: createJoin requires db, joinName and leftField", model.ErrInvalidArgument)
	}
	return &joinSpec{db: db, joinName: joinName, leftField: leftField, rightField: rightField}, nil
}

// resolve fetches this join's contribution for left record L, returning
// the right-hand record (or nil if none matched).
func (j *joinSpec) resolve(left map[string]any) (any, error) {
	target, err := j.db.GetPartitionByName(j.joinName)
	if err != nil {
		return nil, err
	}

	leftVal, ok := fieldString(left, j.leftField)
	if !ok {
		return nil, nil
	}

	if j.rightField == "" {
		v, ok := target.Get(leftVal)
		if !ok {
			return nil, nil
		}
		return v, nil
	}

	data, err := target.Data()
	if err != nil {
		return nil, err
	}
	// Linear scan; callers should treat the right-field branch as O(N)
	// in the target's key count (spec section 4.8).
	for _, candidate := range data {
		obj, ok := candidate.(map[string]any)
		if !ok {
			continue
		}
		rv, ok := fieldString(obj, j.rightField)
		if ok && rv == leftVal {
			return candidate, nil
		}
	}
	return nil, nil
}

func fieldString(obj map[string]any, field string) (string, bool) {
	v, ok := obj[field]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// resolveJoins runs every declared join against left and merges the
// results the way spec section 4.5 describes: merge all
// {joinName: rightRecord} objects, then overlay left's own fields on
// top.
func resolveJoins(joins []*joinSpec, left map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(joins)+len(left))
	for _, j := range joins {
		right, err := j.resolve(left)
		if err != nil {
			return nil, err
		}
		merged[j.joinName] = right
	}
	for k, v := range left {
		merged[k] = v
	}
	return merged, nil
}
