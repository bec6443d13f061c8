package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"trilemma/internal/game"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

// Strategy is one agent's policy for a single match. Instances are built
// fresh per match and are never shared between matches.
type Strategy interface {
	game.Player
	Name() string
}

// Factory builds a fresh Strategy. rng is private to the new instance; a
// strategy may draw from it at construction time, on every call, or never.
type Factory func(rng *rand.Rand) Strategy

var strategyRegistry = struct {
	mu      sync.RWMutex
	m       map[string]Factory
	aliases map[string]string
}{
	m:       make(map[string]Factory),
	aliases: make(map[string]string),
}

func init() {
	initializeBuiltInStrategies()
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("strategy name is required")
	}
	if factory == nil {
		return errors.New("strategy factory is required")
	}

	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()

	if _, exists := strategyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, name)
	}
	if _, exists := strategyRegistry.aliases[name]; exists {
		return fmt.Errorf("%w: %s is an alias", ErrStrategyExists, name)
	}
	strategyRegistry.m[name] = factory
	return nil
}

func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// RegisterAlias makes alias resolve to an already registered strategy.
func RegisterAlias(alias, name string) error {
	if alias == "" || name == "" {
		return errors.New("alias and strategy name are required")
	}

	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()

	if _, ok := strategyRegistry.m[name]; !ok {
		return fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	if _, exists := strategyRegistry.m[alias]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, alias)
	}
	if _, exists := strategyRegistry.aliases[alias]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, alias)
	}
	strategyRegistry.aliases[alias] = name
	return nil
}

// Resolve returns the canonical name and factory for name or one of its aliases.
func Resolve(name string) (string, Factory, error) {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	if factory, ok := strategyRegistry.m[name]; ok {
		return name, factory, nil
	}
	if canonical, ok := strategyRegistry.aliases[name]; ok {
		return canonical, strategyRegistry.m[canonical], nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
}

func Lookup(name string) (Factory, error) {
	_, factory, err := Resolve(name)
	return factory, err
}

func Names() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	names := make([]string, 0, len(strategyRegistry.m))
	for name := range strategyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Aliases() map[string]string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	out := make(map[string]string, len(strategyRegistry.aliases))
	for alias, name := range strategyRegistry.aliases {
		out[alias] = name
	}
	return out
}

func resetRegistryForTests() {
	strategyRegistry.mu.Lock()
	strategyRegistry.m = make(map[string]Factory)
	strategyRegistry.aliases = make(map[string]string)
	strategyRegistry.mu.Unlock()
	initializeBuiltInStrategies()
}
