package internal

import (
	"reflect"
	"sync"

	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// MappingCache generates mappings lazily and keeps one per model type.
// Entries are never evicted. Failures are cached too since they depend only
// on the static shape of the type.
type MappingCache struct {
	caps    *BridgeCapabilities
	opts    MappingOptions
	cacheMu sync.RWMutex
	slots   map[reflect.Type]*mappingSlot
}

type mappingSlot struct {
	once    sync.Once
	mapping *GeneratedMapping
	err     error
}

var _ rhizo.MappingRegistry = (*MappingCache)(nil)

func NewMappingCache(caps *BridgeCapabilities, opts MappingOptions) *MappingCache {
	return &MappingCache{
		caps:  caps,
		opts:  opts,
		slots: make(map[reflect.Type]*mappingSlot),
	}
}

// MappingFor returns the mapping of modelType. Concurrent callers for the
// same type share one generation; different types generate independently.
// With caching disabled every call generates a new mapping.
func (c *MappingCache) MappingFor(modelType reflect.Type) (rhizo.Mapping, error) {
	if !c.opts.CacheEnabled {
		return c.generate(modelType)
	}

	slot := c.slot(modelType)
	slot.once.Do(func() {
		slot.mapping, slot.err = Generate(modelType, c.caps, c.opts)
	})
	if slot.err != nil {
		return nil, slot.err
	}
	return slot.mapping, nil
}

func (c *MappingCache) generate(modelType reflect.Type) (rhizo.Mapping, error) {
	m, err := Generate(modelType, c.caps, c.opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *MappingCache) slot(modelType reflect.Type) *mappingSlot {
	c.cacheMu.RLock()
	slot, ok := c.slots[modelType]
	c.cacheMu.RUnlock()
	if ok {
		return slot
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if slot, ok = c.slots[modelType]; ok {
		return slot
	}
	slot = &mappingSlot{}
	c.slots[modelType] = slot
	zap.S().Debugw("reserved mapping cache slot", "model", modelType.String())
	return slot
}

// Len returns the number of cached types, including failed ones.
func (c *MappingCache) Len() int {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return len(c.slots)
}

// Capabilities returns the converter table shared by every mapping.
func (c *MappingCache) Capabilities() *BridgeCapabilities {
	return c.caps
}
