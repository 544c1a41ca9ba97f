package model

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Status 行的可见状态 (软删除标记)
type Status string

const (
	StatusVisible Status = "visible" // 正常显示
	StatusRemoved Status = "removed" // 已软删除, 行仍保留
)

// Point 对应地图上用户放置的一个点
// 主键由坐标派生: "lat,lng" (各保留 6 位小数)
type Point struct {
	PointID   string    `json:"point_id" gorm:"column:point_id;primaryKey"`
	Lat       float64   `json:"lat" gorm:"not null"`
	Lng       float64   `json:"lng" gorm:"not null"`
	Status    Status    `json:"status" gorm:"type:varchar(16);not null;default:visible;index"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName 表名沿用 points
func (Point) TableName() string { return "points" }

// PointID 根据经纬度生成点 ID (固定 6 位小数)
func PointID(lat, lng float64) string {
	return FormatCoord(lat) + "," + FormatCoord(lng)
}

var (
	coordScale = big.NewFloat(1e6)
	coordHalf  = big.NewFloat(0.5)
	coordDiv   = big.NewInt(1e6)
)

// FormatCoord 保留 6 位小数, 按精确十进制值四舍五入 (0.5 远离零)
// 舍入结果为 0 时不带负号, 同一位置只有一个 ID
func FormatCoord(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 6, 64)
	}
	// 256 位精度下 |x|*1e6 与 +0.5 都不会丢位
	m := new(big.Float).SetPrec(256).SetFloat64(math.Abs(x))
	m.Mul(m, coordScale)
	m.Add(m, coordHalf)
	n, _ := m.Int(nil)

	q, r := new(big.Int).QuoRem(n, coordDiv, new(big.Int))
	s := fmt.Sprintf("%s.%06d", q.String(), r.Int64())
	if x < 0 && n.Sign() != 0 {
		return "-" + s
	}
	return s
}

// ParsePointID 把点 ID 还原为经纬度
func ParsePointID(id string) (lat, lng float64, err error) {
	latText, lngText, ok := strings.Cut(id, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point id %q", id)
	}
	lat, err = strconv.ParseFloat(latText, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point id %q: %w", id, err)
	}
	lng, err = strconv.ParseFloat(lngText, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid point id %q: %w", id, err)
	}
	return lat, lng, nil
}
