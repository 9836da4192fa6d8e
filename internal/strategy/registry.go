package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// StrategyFactory builds a strategy from a preset plus external tuning
type StrategyFactory func(t Tuning) (Strategy, error)

// registry 전역 레지스트리
var (
	registry     = make(map[string]StrategyFactory)
	registryLock sync.RWMutex
)

// Register adds a named preset.
// 새 전략 추가시: strategy.Register("name", factory)
func Register(name string, factory StrategyFactory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// Get builds the named strategy with the given tuning applied
func Get(name string, t Tuning) (Strategy, error) {
	if name == "" {
		name = string(DefaultVariant)
	}

	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s (available: %v)", name, List())
	}

	return factory(t)
}

// List returns registered strategy names in sorted order
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustGet 전략 가져오기 (없으면 panic)
func MustGet(name string, t Tuning) Strategy {
	s, err := Get(name, t)
	if err != nil {
		panic(err)
	}
	return s
}

// init 기본 전략 등록
func init() {
	Register(string(VariantBasicVortex), func(t Tuning) (Strategy, error) {
		cfg := DefaultVortexConfig()
		if err := cfg.Apply(t); err != nil {
			return nil, fmt.Errorf("%s tuning: %w", VariantBasicVortex, err)
		}
		return NewVortexStrategy(cfg)
	})

	Register(string(VariantTrendRsiAtr), func(t Tuning) (Strategy, error) {
		cfg := DefaultTrendConfig()
		if err := cfg.Apply(t); err != nil {
			return nil, fmt.Errorf("%s tuning: %w", VariantTrendRsiAtr, err)
		}
		return NewTrendStrategy(cfg)
	})

	Register(string(VariantScalpingBreakout), func(t Tuning) (Strategy, error) {
		cfg := DefaultScalpingConfig()
		if err := cfg.Apply(t); err != nil {
			return nil, fmt.Errorf("%s tuning: %w", VariantScalpingBreakout, err)
		}
		return NewScalpingStrategy(cfg)
	})
}

// StrategyInfo 전략 정보
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AllInfo returns name and description of every registered preset
func AllInfo() []StrategyInfo {
	names := List()
	infos := make([]StrategyInfo, 0, len(names))

	for _, name := range names {
		if s, err := Get(name, Tuning{}); err == nil {
			infos = append(infos, StrategyInfo{Name: s.Name(), Description: s.Description()})
		}
	}

	return infos
}
