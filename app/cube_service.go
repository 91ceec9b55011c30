package app

import (
	"context"
	"sync"
	"time"

	"gopivot/domain/core"
	"gopivot/domain/dimension"
	"gopivot/domain/pivot"
	"gopivot/domain/selection"
	"gopivot/internal"
	"gopivot/internal/errors"
	"gopivot/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const usageLogTimeout = 10 * time.Second

// LoadedCube is the request independent part of a cube. It is shared
// read-only between requests.
type LoadedCube struct {
	ID      core.CubeParts
	Catalog *dimension.Catalog
	Name    dimension.Label
	Columns []string
}

// CubeServiceOptions tunes a CubeService.
type CubeServiceOptions struct {
	QueryTimeout    time.Duration
	UsageLogEnabled bool
}

// CubeService renders filtered cubes.
type CubeService struct {
	envs    ports.Environments
	options CubeServiceOptions
	logger  *internal.Logger

	mu     sync.Mutex
	cubes  map[string]*LoadedCube
	flight singleflight.Group
	usages sync.WaitGroup
}

// NewCubeService creates a cube service
func NewCubeService(envs ports.Environments, options CubeServiceOptions) *CubeService {
	return &CubeService{
		envs:    envs,
		options: options,
		logger:  internal.NewComponentLogger("CubeService"),
		cubes:   make(map[string]*LoadedCube),
	}
}

// LoadCube returns the catalog, name and fact columns of a cube, reading
// them once per environment. Concurrent loads of the same cube share one read.
func (s *CubeService) LoadCube(ctx context.Context, env string, id core.CubeParts) (*LoadedCube, error) {
	key := cacheKey(env, id)
	s.mu.Lock()
	cached, ok := s.cubes[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	// The load outlives any single caller; a caller that gives up only stops waiting.
	results := s.flight.DoChan(key, func() (interface{}, error) {
		lctx, cancel := s.loadContext(ctx)
		defer cancel()
		return s.loadCube(lctx, env, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Shared load of cube %s", key)
		}
		return res.Val.(*LoadedCube), nil
	}
}

func (s *CubeService) loadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.options.QueryTimeout > 0 {
		return context.WithTimeout(detached, s.options.QueryTimeout)
	}
	return context.WithCancel(detached)
}

func cacheKey(env string, id core.CubeParts) string {
	return env + "/" + id.String()
}

func (s *CubeService) loadCube(ctx context.Context, env string, id core.CubeParts) (*LoadedCube, error) {
	key := cacheKey(env, id)
	s.mu.Lock()
	cached, ok := s.cubes[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	source, err := s.envs.CubeSource(env)
	if err != nil {
		return nil, err
	}

	builder := dimension.NewBuilder()
	var (
		metadata map[string][]dimension.Property
		name     dimension.Label
		columns  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.StreamTree(gctx, id, func(r dimension.TreeRecord) error {
			if err := builder.Add(r); err != nil {
				return errors.Integrity("invalid dimension tree", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		var err error
		metadata, err = source.LoadMetadata(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		name, err = source.LoadCubeName(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		columns, err = source.FactColumns(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "failed to load cube %s", id)
	}

	catalog := builder.Catalog()
	catalog.ApplyMetadata(metadata)

	loaded := &LoadedCube{ID: id, Catalog: catalog, Name: name, Columns: columns}
	s.mu.Lock()
	s.cubes[key] = loaded
	s.mu.Unlock()
	s.logger.Info("Loaded cube %s (%d nodes, %d fact columns)", key, catalog.Len(), len(columns))
	return loaded, nil
}

// Render loads, filters and lays out the cube described by req.
func (s *CubeService) Render(ctx context.Context, req CubeRequest) (*CubeView, error) {
	id, err := core.ParseCubeID(req.Cube)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	if s.options.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.QueryTimeout)
		defer cancel()
	}

	cube, err := s.LoadCube(ctx, req.Env, id)
	if err != nil {
		return nil, err
	}
	name := cube.Name.Value(req.Locale)

	rows, err := resolveHeaders(cube.Catalog, req.Rows)
	if err != nil {
		return nil, err
	}
	columns, err := resolveHeaders(cube.Catalog, req.Columns)
	if err != nil {
		return nil, err
	}
	explicit, err := resolveFilters(cube.Catalog, req.Filters)
	if err != nil {
		return nil, err
	}

	headers := append(bandNodes(rows), bandNodes(columns)...)
	filters := selection.SelectFilterNodes(cube.Catalog.Dimensions(), headers, explicit)
	admissible := selection.BuildAdmissibleNodeSets(selection.Flatten(headers), filters, req.ShowValueTypes)
	if admissible.IsEmpty() {
		s.logger.Info("Selection for %s admits no nodes", id)
		return emptyCubeView(id.String(), name, req.Locale), nil
	}

	source, err := s.envs.CubeSource(req.Env)
	if err != nil {
		return nil, err
	}
	ds, err := source.LoadFacts(ctx, id, cube.Columns, cube.Catalog, admissible)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load facts of %s", id)
	}

	start := time.Now()
	p := pivot.NewFilterablePivot(pivot.NewBasePivot(ds, rows, columns, filters))
	p.FilterHierarchy()
	p.ApplyFilters(s.predicates(p, req))
	s.logger.Debug("Filtered %s to %dx%d in %s", id, p.RowCount(), p.ColumnCount(), time.Since(start))

	s.logUsage(ctx, req, id, p, filters)
	return newCubeView(id.String(), name, req.Locale, p, filters, req.ShowValueTypes), nil
}

func (s *CubeService) predicates(p pivot.Pivot, req CubeRequest) []pivot.Predicate {
	predicates := []pivot.Predicate{pivot.HideImpossibleHierarchy(p)}
	if req.FilterEmpty {
		predicates = append(predicates, pivot.HideEmpty())
	}
	if req.FilterZero {
		predicates = append(predicates, pivot.HideZero())
	}
	return predicates
}

// logUsage records the visible selection in the background. Failures are
// logged and never reach the caller.
func (s *CubeService) logUsage(ctx context.Context, req CubeRequest, id core.CubeParts, p pivot.Pivot, filters []*dimension.Node) {
	if !s.options.UsageLogEnabled {
		return
	}
	usage, err := s.envs.UsageLogger(req.Env)
	if err != nil || usage == nil {
		if err != nil {
			s.logger.Warn("Could not log event: %v", err)
		}
		return
	}

	event := ports.DisplayEvent{
		ID:          core.NewID(),
		Env:         req.Env,
		Cube:        id,
		Host:        req.Host,
		IPAddr:      req.IPAddr,
		SessionID:   req.SessionID,
		View:        req.View,
		FilterZero:  req.FilterZero,
		FilterEmpty: req.FilterEmpty,
	}
	event.Selections = appendSelections(event.Selections, p.Columns(), ports.UsageColumn)
	event.Selections = appendSelections(event.Selections, p.Rows(), ports.UsageRow)
	event.Selections = appendSelections(event.Selections, []*pivot.Level{pivot.NewLevel(filters...)}, ports.UsageFilter)

	s.usages.Add(1)
	go func() {
		defer s.usages.Done()
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageLogTimeout)
		defer cancel()
		if err := usage.LogDisplayEvent(lctx, event); err != nil {
			s.logger.Warn("Could not log event %s: %v", event.ID, err)
		}
	}()
}

func appendSelections(out []ports.UsageSelection, levels []*pivot.Level, usage ports.SelectionUsage) []ports.UsageSelection {
	for _, l := range levels {
		for _, n := range l.Nodes() {
			out = append(out, ports.UsageSelection{Dimension: n.Dimension().ID, Node: n.ID, Usage: usage})
		}
	}
	return out
}

// Wait blocks until pending usage log writes have finished.
func (s *CubeService) Wait() {
	s.usages.Wait()
}

// Invalidate drops the cached cube so the next request reloads it.
func (s *CubeService) Invalidate(env, cube string) error {
	id, err := core.ParseCubeID(cube)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	s.mu.Lock()
	delete(s.cubes, cacheKey(env, id))
	s.mu.Unlock()
	return nil
}
