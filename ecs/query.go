package ecs

// intersect returns the entities present in every set, in the dense order
// of the smallest one.
func intersect(sets []*SparseSet) []Entity {
	if len(sets) == 0 {
		return nil
	}
	smallest := 0
	for i, s := range sets {
		if s.Len() < sets[smallest].Len() {
			smallest = i
		}
	}
	out := make([]Entity, 0, sets[smallest].Len())
	for _, e := range sets[smallest].Entities() {
		in := true
		for i, s := range sets {
			if i != smallest && !s.Has(e) {
				in = false
				break
			}
		}
		if in {
			out = append(out, e)
		}
	}
	return out
}
