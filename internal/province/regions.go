package province

import "slices"

// Region returns the island region of a canonical name, or UnknownRegion.
func (m *Mapper) Region(name string) string {
	if r, ok := m.regions[normalize(name)]; ok {
		return r
	}
	return UnknownRegion
}

// Regions returns the region names in table order.
func (m *Mapper) Regions() []string {
	return slices.Clone(m.regionOrder)
}

// RegionMembers returns the provinces of a region in ascending order.
func (m *Mapper) RegionMembers(region string) []string {
	var out []string
	for p, r := range m.regions {
		if r == region {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

