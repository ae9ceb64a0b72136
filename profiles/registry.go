package profiles

import (
	"fmt"

	"sqlcamp/datagen/models"
)

// Registry maps verticals to their profiles. One instance serves the whole
// process; profiles are immutable after construction.
type Registry struct {
	byVertical map[models.Vertical]*Profile
}

func NewRegistry() *Registry {
	r := &Registry{byVertical: make(map[models.Vertical]*Profile)}
	for _, p := range []*Profile{
		newCommerceProfile(),
		newContentProfile(),
		newSaaSProfile(),
		newCommunityProfile(),
		newFintechProfile(),
	} {
		r.byVertical[p.Vertical] = p
	}
	return r
}

func (r *Registry) Get(v models.Vertical) (*Profile, error) {
	p, ok := r.byVertical[v]
	if !ok {
		return nil, fmt.Errorf("unknown vertical %q", v)
	}
	return p, nil
}

func (r *Registry) All() []*Profile {
	out := make([]*Profile, 0, len(r.byVertical))
	for _, v := range models.Verticals() {
		if p, ok := r.byVertical[v]; ok {
			out = append(out, p)
		}
	}
	return out
}
