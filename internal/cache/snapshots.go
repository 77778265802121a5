// Package cache guarda el último MarketSnapshot por (venue, symbol).
//
// Disciplina de escritura: cada tarea de fetch escribe solo sus propias claves
// y Put nunca regresa el estado — un snapshot con timestamp más viejo que el
// almacenado se descarta. El detector lee mediante GetAll, que devuelve una
// copia consistente punto-en-el-tiempo: ninguna escritura concurrente puede
// dejar una iteración a medias.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/jgarciad/arbscan/internal/domain"
)

type key struct {
	venue  string
	symbol string
}

// SnapshotCache es el único estado mutado concurrentemente por las tareas de
// fetch. Escrituras atómicas por clave, last-timestamp-wins.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[key]domain.MarketSnapshot
}

// New crea un cache vacío.
func New() *SnapshotCache {
	return &SnapshotCache{entries: make(map[key]domain.MarketSnapshot)}
}

// Put almacena el snapshot si es más nuevo que el existente para su clave.
// Devuelve false (no-op) si llegó un snapshot igual de viejo o más viejo,
// o si el snapshot no pasa validación.
func (c *SnapshotCache) Put(snap domain.MarketSnapshot) bool {
	if err := snap.Validate(); err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{venue: snap.Venue, symbol: snap.Symbol}
	if cur, ok := c.entries[k]; ok && !snap.Timestamp.After(cur.Timestamp) {
		return false
	}
	c.entries[k] = snap
	return true
}

// Get devuelve el snapshot de (venue, symbol) si existe y no supera maxAge.
// Falla con ErrSnapshotMissing si no hay entrada y con ErrStaleData si la
// entrada es más vieja que maxAge.
func (c *SnapshotCache) Get(venue, symbol string, maxAge time.Duration) (domain.MarketSnapshot, error) {
	c.mu.RLock()
	snap, ok := c.entries[key{venue: venue, symbol: symbol}]
	c.mu.RUnlock()

	if !ok {
		return domain.MarketSnapshot{}, fmt.Errorf("cache.Get: %s %s: %w", venue, symbol, domain.ErrSnapshotMissing)
	}
	if age := snap.Age(time.Now()); age > maxAge {
		return domain.MarketSnapshot{}, fmt.Errorf("cache.Get: %s %s edad %s > %s: %w",
			venue, symbol, age.Round(time.Millisecond), maxAge, domain.ErrStaleData)
	}
	return snap, nil
}

// GetAll devuelve una copia punto-en-el-tiempo de todas las entradas.
// Los snapshots son vistas de solo lectura: el detector nunca los muta.
func (c *SnapshotCache) GetAll() []domain.MarketSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.MarketSnapshot, 0, len(c.entries))
	for _, snap := range c.entries {
		out = append(out, snap)
	}
	return out
}

// Fresh devuelve las entradas con edad ≤ maxAge respecto a now, agrupadas
// por venue y luego por símbolo. Es la vista que consume el detector: datos
// viejos jamás llegan a producir una Opportunity.
func (c *SnapshotCache) Fresh(now time.Time, maxAge time.Duration) map[string]map[string]domain.MarketSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]domain.MarketSnapshot)
	for k, snap := range c.entries {
		if snap.Age(now) > maxAge {
			continue
		}
		if out[k.venue] == nil {
			out[k.venue] = make(map[string]domain.MarketSnapshot)
		}
		out[k.venue][k.symbol] = snap
	}
	return out
}

// Len devuelve el número de entradas almacenadas.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
