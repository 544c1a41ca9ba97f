package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	assert.Zero(t, HaversineDistance(10, 20, 10, 20))

	// 赤道上经度差 1 度
	assert.InDelta(t, EarthRadius*math.Pi/180, HaversineDistance(0, 0, 0, 1), 1e-6)

	// 对称
	d1 := HaversineDistance(40.7128, -74.006, 51.5074, -0.1278)
	d2 := HaversineDistance(51.5074, -0.1278, 40.7128, -74.006)
	assert.InDelta(t, d1, d2, 1e-6)
	assert.InDelta(t, 5.57e6, d1, 2e4)
}

func TestValidRanges(t *testing.T) {
	assert.True(t, ValidLat(-90))
	assert.True(t, ValidLat(90))
	assert.False(t, ValidLat(90.000001))
	assert.True(t, ValidLng(-180))
	assert.False(t, ValidLng(180.5))
	assert.False(t, ValidLat(math.NaN()))
}

func TestLineLength(t *testing.T) {
	d, err := LineLength("0.000000,0.000000|0.000000,1.000000")
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, d, 0.01)

	_, err = LineLength("no-separator")
	assert.Error(t, err)
	_, err = LineLength("a,b|0,0")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))
	assert.False(t, CheckPassword("not-a-hash", "admin123"))
}
