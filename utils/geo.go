package utils

import (
	"math"

	"drone-map/model"
)

// EarthRadius WGS84 参考椭球长半轴 (米)
const EarthRadius = 6378137.0

// 合法经纬度范围
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLng = -180.0
	MaxLng = 180.0
)

// DegreesToRadians 角度转弧度
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// ValidLat 纬度是否在 [-90, 90]
func ValidLat(lat float64) bool { return lat >= MinLat && lat <= MaxLat }

// ValidLng 经度是否在 [-180, 180]
func ValidLng(lng float64) bool { return lng >= MinLng && lng <= MaxLng }

// HaversineDistance Haversine 公式 (直接计算两点间球面距离, 米)
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := DegreesToRadians(lat1)
	phi2 := DegreesToRadians(lat2)
	dLat := phi2 - phi1
	dLon := DegreesToRadians(lng2) - DegreesToRadians(lng1)

	// a = sin²(Δlat/2) + cos(lat1) * cos(lat2) * sin²(Δlon/2)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// c = 2 * atan2(√a, √(1-a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// LineLength 根据线 ID 计算两端点之间的球面距离 (米)
func LineLength(lineID string) (float64, error) {
	startID, endID, err := model.ParseLineID(lineID)
	if err != nil {
		return 0, err
	}
	lat1, lng1, err := model.ParsePointID(startID)
	if err != nil {
		return 0, err
	}
	lat2, lng2, err := model.ParsePointID(endID)
	if err != nil {
		return 0, err
	}
	return HaversineDistance(lat1, lng1, lat2, lng2), nil
}
