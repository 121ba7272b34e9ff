package weather

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMessage(t *testing.T) {
	p := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		assert.Contains(t, rainMessages[false], FallbackMessage(TypeDrizzle, false, p))
		assert.Contains(t, rainMessages[true], FallbackMessage(TypeThunderstorm, true, p))
		assert.Contains(t, dryMessages[TypeSnowy][false], FallbackMessage(TypeHeavySnow, false, p))
		assert.Contains(t, dryMessages[TypeFoggy][true], FallbackMessage(TypeDenseFog, true, p))
		assert.Contains(t, defaultDry[false], FallbackMessage(TypeDusty, false, p))
	}
}

func TestFallbackPoolsAreNeverEmpty(t *testing.T) {
	for _, wt := range []Type{
		TypeThunderstorm, TypeHeavyRain, TypeLightRain, TypeDrizzle, TypeRain,
		TypeHeavySnow, TypeLightSnow, TypeSnowy, TypeDenseFog, TypeFoggy,
		TypeClearSky, TypeSunny, TypeHotSunny, TypeFewClouds, TypePartlyCloudy,
		TypeBrokenClouds, TypeOvercast, TypeCloudy, TypeFreezing, TypeDusty,
	} {
		require.True(t, wt.Valid(), wt)
		assert.NotEmpty(t, fallbackPool(wt, false), wt)
		assert.NotEmpty(t, fallbackPool(wt, true), wt)
	}
}

func TestUnits(t *testing.T) {
	u, err := ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, Celsius, u)

	u, err = ParseUnit("fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, Fahrenheit, u)

	_, err = ParseUnit("K")
	assert.Error(t, err)

	assert.Equal(t, 50.0, ConvertTemperature(10, Fahrenheit))
	assert.Equal(t, -40.0, ConvertTemperature(-40, Fahrenheit))
	assert.Equal(t, 21.3, ConvertTemperature(21.27, Celsius))
	assert.Equal(t, 70.3, ConvertTemperature(21.27, Fahrenheit))
}
