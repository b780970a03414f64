package ingest

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if an entity with the same name is already registered or the
// definition is incomplete; registration happens at init time, so both
// are programming errors.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Entity == "" {
		panic("entity definition has no name")
	}
	if def.Stage < 0 || def.Stage >= stageCount {
		panic(fmt.Sprintf("entity %s has unknown stage %d", def.Entity, def.Stage))
	}
	if def.Build == nil || def.Insert == nil {
		panic(fmt.Sprintf("entity %s definition is incomplete", def.Entity))
	}
	if _, exists := registry[def.Entity]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Entity))
	}

	registry[def.Entity] = def
}

// Definitions returns all registered entity definitions in pipeline order:
// sorted by stage, then by entity name for determinism.
func Definitions() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Stage != result[j].Stage {
			return result[i].Stage < result[j].Stage
		}
		return result[i].Entity < result[j].Entity
	})

	return result
}

// Lookup returns an entity definition by name.
func Lookup(entity string) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[entity]
	return def, ok
}
