package strategy

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInStrategiesRegistered(t *testing.T) {
	names := Names()
	for _, want := range []string{
		NameAlwaysCooperate, NameAlwaysDefect, NameRandomChoice, NameMajorityRule,
		NameFixedDisposition, NameEchoConsensus, NameRandomTitForTat,
		NameOpportunist, NameLegacyOpportunist,
	} {
		assert.Contains(t, names, want)

		factory, err := Lookup(want)
		require.NoError(t, err)
		assert.Equal(t, want, factory(rand.New(rand.NewSource(1))).Name())
	}
	assert.IsIncreasing(t, names)
}

func TestResolveAlias(t *testing.T) {
	name, factory, err := Resolve("NastyPlayer")
	require.NoError(t, err)
	assert.Equal(t, NameAlwaysDefect, name)
	assert.Equal(t, NameAlwaysDefect, factory(nil).Name())
	assert.Equal(t, NameMajorityRule, Aliases()["TolerantPlayer"])
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("Nope")
	assert.True(t, errors.Is(err, ErrStrategyNotFound))
}

func TestRegisterValidation(t *testing.T) {
	resetRegistryForTests()
	t.Cleanup(resetRegistryForTests)

	assert.Error(t, Register("", func(*rand.Rand) Strategy { return AlwaysDefect{} }))
	assert.Error(t, Register("Nil", nil))

	err := Register(NameAlwaysDefect, func(*rand.Rand) Strategy { return AlwaysDefect{} })
	assert.True(t, errors.Is(err, ErrStrategyExists))
	err = Register("NicePlayer", func(*rand.Rand) Strategy { return AlwaysCooperate{} })
	assert.True(t, errors.Is(err, ErrStrategyExists))

	require.NoError(t, Register("Grudger", func(*rand.Rand) Strategy { return AlwaysDefect{} }))
	assert.Contains(t, Names(), "Grudger")

	assert.True(t, errors.Is(RegisterAlias("G", "Missing"), ErrStrategyNotFound))
	require.NoError(t, RegisterAlias("G", "Grudger"))
	assert.True(t, errors.Is(RegisterAlias("G", "Grudger"), ErrStrategyExists))
}
