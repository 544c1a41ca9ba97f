package model

import (
	"fmt"
	"strings"
	"time"
)

// LineSeparator 线 ID 中两个端点 ID 之间的分隔符
const LineSeparator = "|"

// Line 对应两点之间的一条连线 (无向)
type Line struct {
	LineID       string    `json:"line_id" gorm:"column:line_id;primaryKey"`
	StartPointID string    `json:"start_point_id" gorm:"column:start_point_id;not null;index"`
	EndPointID   string    `json:"end_point_id" gorm:"column:end_point_id;not null;index"`
	Status       Status    `json:"status" gorm:"type:varchar(16);not null;default:visible;index"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName 表名沿用 lines
func (Line) TableName() string { return "lines" }

// CanonicalEndpoints 对端点排序, 保证 a-b 与 b-a 得到同一顺序
func CanonicalEndpoints(startID, endID string) (string, string) {
	if endID < startID {
		return endID, startID
	}
	return startID, endID
}

// LineID 生成规范化的线 ID: 端点排序后用 "|" 连接
func LineID(startID, endID string) string {
	a, b := CanonicalEndpoints(startID, endID)
	return a + LineSeparator + b
}

// ParseLineID 拆出线 ID 的两个端点
func ParseLineID(id string) (startID, endID string, err error) {
	startID, endID, ok := strings.Cut(id, LineSeparator)
	if !ok || startID == "" || endID == "" {
		return "", "", fmt.Errorf("invalid line id %q", id)
	}
	return startID, endID, nil
}

// MapData GET /map-data 的返回结构
type MapData struct {
	Points []Point `json:"points"`
	Lines  []Line  `json:"lines"`
}
