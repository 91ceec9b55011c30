package testkit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
	"gopivot/domain/selection"
	"gopivot/internal/errors"
	"gopivot/internal/migration"
	"gopivot/ports"

	"github.com/jmoiron/sqlx"
)

// SampleCubeID identifies the bundled sample cube.
const SampleCubeID = "health.sotkanet.population"

// FactRow is one value of a cube keyed by one node id per fact column.
type FactRow struct {
	Keys  []string
	Value string
}

// SampleCube is a small population cube over region, time, sex and measure.
type SampleCube struct {
	ID       core.CubeParts
	Tree     []dimension.TreeRecord
	Metadata map[string][]dimension.Property
	Columns  []string
	Facts    []FactRow
}

// NewSampleCube returns a fresh copy of the sample cube.
func NewSampleCube() *SampleCube {
	id, _ := core.ParseCubeID(SampleCubeID)
	s := &SampleCube{ID: id, Columns: []string{"region", "time", "sex", "measure"}}

	node := func(dim, level, key, parent, ref string) {
		s.Tree = append(s.Tree, dimension.TreeRecord{Dimension: dim, Level: level, NodeID: key, ParentID: parent, Ref: ref})
	}
	node("region", "world", "world", "", "r0")
	node("region", "continent", "europe", "world", "r1")
	node("region", "continent", "asia", "world", "r2")
	node("region", "country", "finland", "europe", "r3")
	node("region", "country", "sweden", "europe", "r4")
	node("region", "country", "japan", "asia", "r5")
	node("time", "all", "all", "", "t0")
	node("time", "year", "2019", "all", "t1")
	node("time", "year", "2020", "all", "t2")
	node("time", "year", "2021", "all", "t3")
	node("sex", "total", "total", "", "s0")
	node("sex", "sex", "male", "total", "s1")
	node("sex", "sex", "female", "total", "s2")
	node("measure", "all", "all", "", "m0")
	node("measure", "measure", "count", "all", "m1")
	node("measure", "measure", "count_lo", "all", "m2")
	node("measure", "measure", "count_hi", "all", "m3")
	node("measure", "measure", "count_n", "all", "m4")

	s.Metadata = map[string][]dimension.Property{}
	prop := func(ref, predicate, lang, value string) {
		s.Metadata[ref] = append(s.Metadata[ref], dimension.Property{Predicate: predicate, Language: lang, Value: value})
	}
	named := func(ref, fi, en string) {
		prop(ref, dimension.PredicateName, "fi", fi)
		prop(ref, dimension.PredicateName, "en", en)
	}
	named("region", "Alue", "Region")
	named("region.country", "Maa", "Country")
	named("r0", "Maailma", "World")
	named("r1", "Eurooppa", "Europe")
	named("r2", "Aasia", "Asia")
	named("r3", "Suomi", "Finland")
	named("r4", "Ruotsi", "Sweden")
	named("r5", "Japani", "Japan")
	prop("r3", dimension.PredicateSort, "", "1")
	prop("r4", dimension.PredicateSort, "", "2")
	named("time", "Aika", "Time")
	named("sex", "Sukupuoli", "Sex")
	named("s0", "Yhteensä", "Total")
	named("s1", "Miehet", "Men")
	named("s2", "Naiset", "Women")
	named("measure", "Mittari", "Measure")
	named("m1", "Lukumäärä", "Count")
	named("m2", "Alaraja", "Lower limit")
	named("m3", "Yläraja", "Upper limit")
	named("m4", "Otoskoko", "Sample size")
	prop("m1", dimension.PredicateCILower, "", "m2")
	prop("m1", dimension.PredicateCIUpper, "", "m3")
	prop("m1", dimension.PredicateSampleSize, "", "m4")
	prop("c0", "is", "", id.Fact)
	named("c0", "Väestö", "Population")

	fact := func(region, time, sex, measure, value string) {
		s.Facts = append(s.Facts, FactRow{Keys: []string{region, time, sex, measure}, Value: value})
	}
	fact("finland", "2019", "total", "count", "5500")
	fact("finland", "2020", "total", "count", "5530")
	fact("sweden", "2019", "total", "count", "10300")
	fact("sweden", "2020", "total", "count", "10350")
	fact("japan", "2019", "total", "count", "0")
	fact("japan", "2020", "total", "count", "126200")
	fact("europe", "2020", "total", "count", "15880")
	fact("finland", "2020", "male", "count", "2730")
	fact("finland", "2020", "female", "count", "2800")
	fact("finland", "2020", "total", "count_lo", "5490")
	fact("finland", "2020", "total", "count_hi", "5570")
	fact("finland", "2020", "total", "count_n", "1200")
	return s
}

// Seed creates the sample cube's tables in schema and fills them.
func (s *SampleCube) Seed(ctx context.Context, db *sqlx.DB, schema string) error {
	runner := migration.NewRunner(schema)
	if err := runner.CreateCubeTables(ctx, db, s.ID, s.Columns); err != nil {
		return err
	}
	table := func(name string) string {
		if schema == "" {
			return name
		}
		return schema + "." + name
	}

	insertTree := db.Rebind(fmt.Sprintf("INSERT INTO %s (dim, stage, key, parent_key, ref, surrogate_id) VALUES (?, ?, ?, ?, ?, ?)", table(s.ID.TreeTable())))
	for i, r := range s.Tree {
		var parent interface{}
		if r.ParentID != "" {
			parent = r.ParentID
		}
		if _, err := db.ExecContext(ctx, insertTree, r.Dimension, r.Level, r.NodeID, parent, r.Ref, i+1); err != nil {
			return errors.DatabaseError("failed to seed tree", err)
		}
	}

	insertMeta := db.Rebind(fmt.Sprintf("INSERT INTO %s (ref, tag, lang, data) VALUES (?, ?, ?, ?)", table(s.ID.MetaTable())))
	for ref, props := range s.Metadata {
		for _, p := range props {
			if _, err := db.ExecContext(ctx, insertMeta, ref, p.Predicate, p.Language, p.Value); err != nil {
				return errors.DatabaseError("failed to seed metadata", err)
			}
		}
	}

	keys := make([]string, len(s.Columns))
	marks := make([]string, len(s.Columns)+1)
	for i, c := range s.Columns {
		keys[i] = c + "_key"
		marks[i] = "?"
	}
	marks[len(s.Columns)] = "?"
	insertFact := db.Rebind(fmt.Sprintf("INSERT INTO %s (%s, val) VALUES (%s)",
		table(s.ID.FactTable()), strings.Join(keys, ", "), strings.Join(marks, ", ")))
	for _, f := range s.Facts {
		args := make([]interface{}, 0, len(f.Keys)+1)
		for _, k := range f.Keys {
			args = append(args, k)
		}
		args = append(args, f.Value)
		if _, err := db.ExecContext(ctx, insertFact, args...); err != nil {
			return errors.DatabaseError("failed to seed facts", err)
		}
	}
	return nil
}

// MemorySource serves sample cubes from memory.
type MemorySource struct {
	cubes map[string]*SampleCube
}

// NewMemorySource creates a source over the given cubes.
func NewMemorySource(cubes ...*SampleCube) *MemorySource {
	m := &MemorySource{cubes: make(map[string]*SampleCube)}
	for _, c := range cubes {
		m.cubes[c.ID.String()] = c
	}
	return m
}

var _ ports.CubeSource = (*MemorySource)(nil)

func (m *MemorySource) cube(id core.CubeParts) (*SampleCube, error) {
	c, ok := m.cubes[id.String()]
	if !ok {
		return nil, errors.CubeNotFound(id.String())
	}
	return c, nil
}

// StreamTree emits the tree records in their stored order.
func (m *MemorySource) StreamTree(ctx context.Context, id core.CubeParts, fn func(dimension.TreeRecord) error) error {
	c, err := m.cube(id)
	if err != nil {
		return err
	}
	for i, r := range c.Tree {
		if err := ctx.Err(); err != nil {
			return err
		}
		sid := i + 1
		r.SurrogateID = &sid
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadMetadata returns the cube's properties.
func (m *MemorySource) LoadMetadata(_ context.Context, id core.CubeParts) (map[string][]dimension.Property, error) {
	c, err := m.cube(id)
	if err != nil {
		return nil, err
	}
	return c.Metadata, nil
}

// LoadCubeName returns the names of the reference that "is" the fact.
func (m *MemorySource) LoadCubeName(_ context.Context, id core.CubeParts) (dimension.Label, error) {
	c, err := m.cube(id)
	if err != nil {
		return nil, err
	}
	name := dimension.Label{}
	for _, props := range c.Metadata {
		if !hasProperty(props, "is", c.ID.Fact) {
			continue
		}
		for _, p := range props {
			if p.Predicate == dimension.PredicateName {
				name.Set(p.Language, p.Value)
			}
		}
	}
	return name, nil
}

func hasProperty(props []dimension.Property, predicate, value string) bool {
	for _, p := range props {
		if p.Predicate == predicate && p.Value == value {
			return true
		}
	}
	return false
}

// FactColumns returns the cube's fact columns.
func (m *MemorySource) FactColumns(_ context.Context, id core.CubeParts) ([]string, error) {
	c, err := m.cube(id)
	if err != nil {
		return nil, err
	}
	return c.Columns, nil
}

// LoadFacts returns the facts whose keys are admissible in every restricted column.
func (m *MemorySource) LoadFacts(_ context.Context, id core.CubeParts, columns []string, catalog *dimension.Catalog, admissible *selection.AdmissibleNodes) (*pivot.Dataset, error) {
	c, err := m.cube(id)
	if err != nil {
		return nil, err
	}
	ds := pivot.NewDataset(columns)
	if admissible == nil || admissible.IsEmpty() {
		return ds, nil
	}

	allowed := make([]map[string]bool, len(columns))
	for i, col := range columns {
		ids := admissible.IDs(col)
		if len(ids) == 0 {
			continue
		}
		allowed[i] = make(map[string]bool, len(ids))
		for _, id := range ids {
			allowed[i][id] = true
		}
	}

rows:
	for _, f := range c.Facts {
		nodes := make([]*dimension.Node, len(columns))
		for i, col := range columns {
			if allowed[i] != nil && !allowed[i][f.Keys[i]] {
				continue rows
			}
			n, err := catalog.Node(col, f.Keys[i])
			if err != nil {
				return nil, errors.Integrity("fact row references an unknown node", err)
			}
			nodes[i] = n
		}
		if err := ds.Put(f.Value, nodes); err != nil {
			return nil, errors.Integrity("fact row does not match the fact columns", err)
		}
	}
	return ds, nil
}

// RecordingUsageLogger keeps display events in memory.
type RecordingUsageLogger struct {
	mu     sync.Mutex
	events []ports.DisplayEvent
	Err    error
}

// LogDisplayEvent records the event and returns Err.
func (r *RecordingUsageLogger) LogDisplayEvent(_ context.Context, event ports.DisplayEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events returns the recorded events.
func (r *RecordingUsageLogger) Events() []ports.DisplayEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.DisplayEvent(nil), r.events...)
}

// StaticEnvironments serves the same source and usage logger for every environment.
type StaticEnvironments struct {
	Source ports.CubeSource
	Usage  ports.UsageLogger
}

// CubeSource returns the shared source.
func (s StaticEnvironments) CubeSource(string) (ports.CubeSource, error) {
	return s.Source, nil
}

// UsageLogger returns the shared usage logger.
func (s StaticEnvironments) UsageLogger(string) (ports.UsageLogger, error) {
	return s.Usage, nil
}
