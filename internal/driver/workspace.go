package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkspaceUnit is one compilation unit in a multi-unit build. Deps
// name units that must be built first, typically because the package
// manager feeds their sources into this unit's file list.
type WorkspaceUnit struct {
	Name  string
	Deps  []string
	Input CompileInput
}

// CompileWorkspace builds every unit, compiling independent units in
// parallel. Units are processed in topological waves; a dependency
// cycle or an unknown dependency is an error. A unit with error
// diagnostics does not stop its siblings.
func CompileWorkspace(ctx context.Context, units []WorkspaceUnit, opts Options) (map[string]*Artifacts, error) {
	waves, err := topoWaves(units)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*Artifacts, len(units))
	var mu sync.Mutex
	for _, wave := range waves {
		g, gctx := errgroup.WithContext(ctx)
		for _, u := range wave {
			u := u
			g.Go(func() error {
				art, err := Compile(gctx, u.Input, opts)
				if err != nil {
					return fmt.Errorf("unit %s: %w", u.Name, err)
				}
				mu.Lock()
				results[u.Name] = art
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// topoWaves groups units into dependency levels: every unit in a wave
// depends only on earlier waves. Output order inside a wave is sorted
// by name so scheduling is deterministic.
func topoWaves(units []WorkspaceUnit) ([][]WorkspaceUnit, error) {
	byName := make(map[string]*WorkspaceUnit, len(units))
	for i := range units {
		u := &units[i]
		if _, dup := byName[u.Name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", u.Name)
		}
		byName[u.Name] = u
	}

	indegree := make(map[string]int, len(units))
	dependents := make(map[string][]string, len(units))
	for i := range units {
		u := &units[i]
		indegree[u.Name] += 0
		for _, dep := range u.Deps {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("unit %q depends on unknown unit %q", u.Name, dep)
			}
			indegree[u.Name]++
			dependents[dep] = append(dependents[dep], u.Name)
		}
	}

	var waves [][]WorkspaceUnit
	ready := make([]string, 0, len(units))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	done := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		wave := make([]WorkspaceUnit, 0, len(ready))
		var next []string
		for _, name := range ready {
			wave = append(wave, *byName[name])
			done++
			for _, dep := range dependents[name] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		waves = append(waves, wave)
		ready = next
	}
	if done != len(units) {
		return nil, fmt.Errorf("dependency cycle among workspace units")
	}
	return waves, nil
}
