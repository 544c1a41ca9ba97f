package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drone-map/model"
)

// MapStore 点和线的持久化, 只做冲突覆盖写和软删除
type MapStore struct {
	db *gorm.DB
}

// NewMapStore 基于已打开的 gorm 连接创建 MapStore
func NewMapStore(gdb *gorm.DB) *MapStore {
	return &MapStore{db: gdb}
}

// UpsertPoint 写入点; 已存在则覆盖坐标并恢复为 visible
func (s *MapStore) UpsertPoint(ctx context.Context, pointID string, lat, lng float64) error {
	p := model.Point{PointID: pointID, Lat: lat, Lng: lng, Status: model.StatusVisible}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "point_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "status", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("upsert point %s: %w", pointID, err)
	}
	return nil
}

// UpsertLine 写入线; 已存在则覆盖端点并恢复为 visible
func (s *MapStore) UpsertLine(ctx context.Context, lineID, startID, endID string) error {
	l := model.Line{LineID: lineID, StartPointID: startID, EndPointID: endID, Status: model.StatusVisible}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "line_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_point_id", "end_point_id", "status", "updated_at"}),
	}).Create(&l).Error
	if err != nil {
		return fmt.Errorf("upsert line %s: %w", lineID, err)
	}
	return nil
}

// RemovePoint 软删除点 (不存在时不报错)
func (s *MapStore) RemovePoint(ctx context.Context, pointID string) error {
	err := s.db.WithContext(ctx).Model(&model.Point{}).
		Where("point_id = ?", pointID).
		Updates(map[string]any{"status": model.StatusRemoved, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("remove point %s: %w", pointID, err)
	}
	return nil
}

// RemoveLine 软删除线 (不存在时不报错)
func (s *MapStore) RemoveLine(ctx context.Context, lineID string) error {
	err := s.db.WithContext(ctx).Model(&model.Line{}).
		Where("line_id = ?", lineID).
		Updates(map[string]any{"status": model.StatusRemoved, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("remove line %s: %w", lineID, err)
	}
	return nil
}

// VisibleMapData 只返回 status = visible 的点和线
func (s *MapStore) VisibleMapData(ctx context.Context) (model.MapData, error) {
	data := model.MapData{Points: []model.Point{}, Lines: []model.Line{}}
	tx := s.db.WithContext(ctx)
	if err := tx.Where("status = ?", model.StatusVisible).Order("point_id").Find(&data.Points).Error; err != nil {
		return model.MapData{}, fmt.Errorf("query points: %w", err)
	}
	if err := tx.Where("status = ?", model.StatusVisible).Order("line_id").Find(&data.Lines).Error; err != nil {
		return model.MapData{}, fmt.Errorf("query lines: %w", err)
	}
	return data, nil
}
