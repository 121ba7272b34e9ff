package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		desc string
		temp float64
		want Type
	}{
		{"Thunderstorm with heavy rain", 18, TypeThunderstorm},
		{"heavy rain", 12, TypeHeavyRain},
		{"Light Rain", 12, TypeLightRain},
		{"drizzle", 12, TypeDrizzle},
		{"rain showers", 12, TypeRain},
		{"blizzard", -5, TypeHeavySnow},
		{"light snow", -1, TypeLightSnow},
		{"snow", -1, TypeSnowy},
		{"snow showers", -2, TypeSnowy},
		{"light snow showers", -2, TypeLightSnow},
		{"rain and snow", 1, TypeSnowy},
		{"dense fog", 3, TypeDenseFog},
		{"mist", 3, TypeFoggy},
		{"clear sky", 22, TypeClearSky},
		{"sunny", 25, TypeSunny},
		{"few clouds", 19, TypeFewClouds},
		{"partly cloudy", 19, TypePartlyCloudy},
		{"broken clouds", 19, TypeBrokenClouds},
		{"overcast clouds", 15, TypeOvercast},
		{"freezing", -3, TypeFreezing},
		{"dust", 33, TypeDusty},
		{"", -15, TypeFreezing},
		{"", -2, TypeSnowy},
		{"", 35, TypeHotSunny},
		{"", 25, TypeSunny},
		{"", 10, TypeCloudy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.desc, tt.temp), "%q at %.0fC", tt.desc, tt.temp)
	}
}

func TestParseType(t *testing.T) {
	wt, ok := ParseType(" Rain ")
	assert.True(t, ok)
	assert.Equal(t, TypeRain, wt)

	_, ok = ParseType("hail")
	assert.False(t, ok)

	_, ok = ParseType("")
	assert.False(t, ok)
}

func TestIsRain(t *testing.T) {
	for _, wt := range []Type{TypeRain, TypeHeavyRain, TypeLightRain, TypeDrizzle, TypeThunderstorm} {
		assert.True(t, wt.IsRain(), wt)
	}
	for _, wt := range []Type{TypeSnowy, TypeSunny, TypeFoggy, TypeOvercast} {
		assert.False(t, wt.IsRain(), wt)
	}
}
