// Package province reconciles the statistical-agency spelling of province
// names with the spelling used by the boundary dataset.
package province

import (
	"errors"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/clean"
	"github.com/Zolda21/electricity-visualization-indonesia2020-2023-TuBes-VisDat/internal/model"
)

// ErrAmbiguousMapping is returned when two statistical names map to the same
// boundary name, which would make the reverse lookup lossy.
var ErrAmbiguousMapping = errors.New("province: ambiguous mapping")

// UnknownRegion is the region of a province absent from the region table.
const UnknownRegion = "Unknown"

// Status classifies a canonical province name against the mapping table.
type Status int

const (
	// StatusMapped names resolve to a boundary name.
	StatusMapped Status = iota
	// StatusPending names are known administrative splits the boundary
	// dataset does not contain yet.
	StatusPending
	// StatusUnexpected names are neither mapped nor pending and need a table
	// update.
	StatusUnexpected
)

func (s Status) String() string {
	switch s {
	case StatusMapped:
		return "mapped"
	case StatusPending:
		return "pending"
	default:
		return "unexpected"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Table is the editable form of the province tables.
type Table struct {
	Mapping         map[string]string `yaml:"mapping"`
	Pending         []string          `yaml:"pending"`
	Regions         []RegionGroup     `yaml:"regions"`
	AggregateMarker string            `yaml:"aggregate_marker"`
}

// RegionGroup lists the provinces of one island region.
type RegionGroup struct {
	Name      string   `yaml:"name"`
	Provinces []string `yaml:"provinces"`
}

// Mapper is an immutable, validated view of a Table. It is safe for
// concurrent use.
type Mapper struct {
	forward     map[string]string
	reverse     map[string]string
	pending     map[string]bool
	pendingList []string
	regions     map[string]string
	regionOrder []string
	marker      string
}

// NewMapper validates t and builds a Mapper. Every key must be non-empty and
// already canonical, boundary names (uppercased, as feature names are) must
// be unique across keys, and pending names must not also be mapped.
func NewMapper(t Table) (*Mapper, error) {
	m := &Mapper{
		forward: make(map[string]string, len(t.Mapping)),
		reverse: make(map[string]string, len(t.Mapping)),
		pending: make(map[string]bool, len(t.Pending)),
		regions: make(map[string]string),
		marker:  clean.Canonicalize(t.AggregateMarker),
	}

	// Iterate keys in order so that error messages are deterministic.
	keys := make([]string, 0, len(t.Mapping))
	for k := range t.Mapping {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := normalize(t.Mapping[k])
		if k == "" {
			return nil, eris.New("province: empty mapping key")
		}
		if clean.Canonicalize(k) != k {
			return nil, eris.Errorf("province: mapping key %q is not canonical (want %q)", k, clean.Canonicalize(k))
		}
		if m.marker != "" && k == m.marker {
			return nil, eris.Errorf("province: aggregate marker %q must not be mapped", k)
		}
		if v == "" {
			return nil, eris.Errorf("province: empty boundary name for %q", k)
		}
		if prev, ok := m.reverse[v]; ok {
			return nil, eris.Wrapf(ErrAmbiguousMapping, "%q and %q both map to %q", prev, k, v)
		}
		m.forward[k] = v
		m.reverse[v] = k
	}

	for _, p := range t.Pending {
		if clean.Canonicalize(p) != p || p == "" {
			return nil, eris.Errorf("province: pending name %q is not canonical", p)
		}
		if _, ok := m.forward[p]; ok {
			return nil, eris.Errorf("province: %q is both mapped and pending", p)
		}
		if !m.pending[p] {
			m.pending[p] = true
			m.pendingList = append(m.pendingList, p)
		}
	}

	for _, g := range t.Regions {
		if g.Name == "" {
			return nil, eris.New("province: region without a name")
		}
		m.regionOrder = append(m.regionOrder, g.Name)
		for _, p := range g.Provinces {
			if prev, ok := m.regions[p]; ok && prev != g.Name {
				return nil, eris.Errorf("province: %q is in regions %q and %q", p, prev, g.Name)
			}
			m.regions[p] = g.Name
		}
	}

	return m, nil
}

// Default returns the mapper over the built-in tables.
func Default() *Mapper {
	m, err := NewMapper(DefaultTable())
	if err != nil {
		panic(err)
	}
	return m
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Resolve returns the boundary name of a canonical statistical name. Lookup is
// exact after trimming and uppercasing; the aggregate marker never resolves.
func (m *Mapper) Resolve(name string) (string, bool) {
	geo, ok := m.forward[normalize(name)]
	return geo, ok
}

// Reverse returns the statistical name of a boundary name.
func (m *Mapper) Reverse(boundaryName string) (string, bool) {
	name, ok := m.reverse[normalize(boundaryName)]
	return name, ok
}

// Classify reports whether name is mapped, a known pending split, or
// unexpected.
func (m *Mapper) Classify(name string) Status {
	name = normalize(name)
	if _, ok := m.forward[name]; ok {
		return StatusMapped
	}
	if m.pending[name] {
		return StatusPending
	}
	return StatusUnexpected
}

// IsPending reports whether name is a known administrative split.
func (m *Mapper) IsPending(name string) bool {
	return m.pending[normalize(name)]
}

// Names returns the mapped statistical names in ascending order.
func (m *Mapper) Names() []string {
	names := make([]string, 0, len(m.forward))
	for k := range m.forward {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// BoundaryNames returns the mapped boundary names in ascending order.
func (m *Mapper) BoundaryNames() []string {
	names := make([]string, 0, len(m.reverse))
	for k := range m.reverse {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Pending returns the known pending names in table order.
func (m *Mapper) Pending() []string {
	return slices.Clone(m.pendingList)
}

// Table returns an editable copy of the tables backing m.
func (m *Mapper) Table() Table {
	t := Table{
		Mapping:         make(map[string]string, len(m.forward)),
		Pending:         m.Pending(),
		AggregateMarker: m.marker,
	}
	for k, v := range m.forward {
		t.Mapping[k] = v
	}
	for _, name := range m.regionOrder {
		t.Regions = append(t.Regions, RegionGroup{Name: name, Provinces: m.RegionMembers(name)})
	}
	return t
}

// Classification describes one province name.
type Classification struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Boundary string `json:"boundary,omitempty"`
	Region   string `json:"region"`
}

// ClassifyAll classifies the distinct names in ascending order.
func (m *Mapper) ClassifyAll(names []string) []Classification {
	distinct := make(map[string]bool, len(names))
	for _, n := range names {
		distinct[normalize(n)] = true
	}
	sorted := make([]string, 0, len(distinct))
	for n := range distinct {
		sorted = append(sorted, n)
	}
	slices.Sort(sorted)

	out := make([]Classification, 0, len(sorted))
	for _, n := range sorted {
		geo, _ := m.Resolve(n)
		out = append(out, Classification{
			Name:     n,
			Status:   m.Classify(n),
			Boundary: geo,
			Region:   m.Region(n),
		})
	}
	return out
}

// Annotation summarizes an Annotate call.
type Annotation struct {
	Rows           int      `json:"rows"`
	Mapped         int      `json:"mapped"`
	PendingRows    int      `json:"pending_rows"`
	UnexpectedRows int      `json:"unexpected_rows"`
	Pending        []string `json:"pending"`
	Unexpected     []string `json:"unexpected"`
}

// Annotate returns a copy of records with ProvinceGeo set for every mapped
// province. Unmapped records are kept with a nil ProvinceGeo. Unexpected names
// are logged as data-quality warnings.
func (m *Mapper) Annotate(records []model.CleanRecord) ([]model.CleanRecord, Annotation) {
	log := zap.L().With(zap.String("component", "province"))

	out := make([]model.CleanRecord, len(records))
	ann := Annotation{Rows: len(records), Pending: []string{}, Unexpected: []string{}}
	seenPending := make(map[string]bool)
	seenUnexpected := make(map[string]bool)

	for i, r := range records {
		out[i] = r
		out[i].ProvinceGeo = nil

		switch m.Classify(r.Province) {
		case StatusMapped:
			geo, _ := m.Resolve(r.Province)
			out[i].ProvinceGeo = &geo
			ann.Mapped++
		case StatusPending:
			ann.PendingRows++
			if !seenPending[r.Province] {
				seenPending[r.Province] = true
				ann.Pending = append(ann.Pending, r.Province)
			}
		default:
			ann.UnexpectedRows++
			if !seenUnexpected[r.Province] {
				seenUnexpected[r.Province] = true
				ann.Unexpected = append(ann.Unexpected, r.Province)
			}
		}
	}
	slices.Sort(ann.Pending)
	slices.Sort(ann.Unexpected)

	for _, name := range ann.Unexpected {
		log.Warn("province: unexpected province name, update the mapping table",
			zap.String("province", name),
		)
	}
	log.Info("province: annotated records",
		zap.Int("rows", ann.Rows),
		zap.Int("mapped", ann.Mapped),
		zap.Int("pending", ann.PendingRows),
		zap.Int("unexpected", ann.UnexpectedRows),
	)
	return out, ann
}
