package model

import "fmt"

// MaterialGroup holds the part requests for one material.
type MaterialGroup struct {
	Material string        `json:"material" yaml:"material"`
	Requests []PartRequest `json:"parts" yaml:"parts"`
}

// TotalInstances counts the parts after quantity expansion.
func (g MaterialGroup) TotalInstances() int {
	n := 0
	for _, r := range g.Requests {
		if r.Quantity > 0 {
			n += r.Quantity
		}
	}
	return n
}

// MaterialGroups is an ordered material → requests mapping. Order is the
// order in which materials were first seen and drives board output order.
type MaterialGroups []MaterialGroup

// GroupByMaterial buckets requests by their part type's material.
func GroupByMaterial(requests []PartRequest) MaterialGroups {
	var groups MaterialGroups
	for _, r := range requests {
		groups = groups.Add(r)
	}
	return groups
}

// Add appends a request to its material's group, opening a new group if needed.
func (gs MaterialGroups) Add(r PartRequest) MaterialGroups {
	for i := range gs {
		if gs[i].Material == r.Type.Material {
			gs[i].Requests = append(gs[i].Requests, r)
			return gs
		}
	}
	return append(gs, MaterialGroup{Material: r.Type.Material, Requests: []PartRequest{r}})
}

// Merged combines groups that name the same material into the first of them,
// keeping first-seen order. Groups without requests are kept.
func (gs MaterialGroups) Merged() MaterialGroups {
	out := make(MaterialGroups, 0, len(gs))
	index := make(map[string]int, len(gs))
	for _, g := range gs {
		i, ok := index[g.Material]
		if !ok {
			i = len(out)
			index[g.Material] = i
			out = append(out, MaterialGroup{Material: g.Material})
		}
		out[i].Requests = append(out[i].Requests, g.Requests...)
	}
	return out
}

// TotalInstances counts all parts across groups after quantity expansion.
func (gs MaterialGroups) TotalInstances() int {
	n := 0
	for _, g := range gs {
		n += g.TotalInstances()
	}
	return n
}

// Validate rejects part types with unusable geometry or negative quantities.
func (gs MaterialGroups) Validate() error {
	for _, g := range gs {
		for _, r := range g.Requests {
			if err := r.Type.Validate(); err != nil {
				return err
			}
			if r.Quantity < 0 {
				return fmt.Errorf("%w: %q has negative quantity %d", ErrInvalidPart, r.Type.Name, r.Quantity)
			}
		}
	}
	return nil
}
