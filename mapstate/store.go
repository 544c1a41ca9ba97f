// Package mapstate 维护客户端的点/线集合, 同步到会话缓存和远端服务
package mapstate

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"drone-map/model"
	"drone-map/utils"
)

// Remote 持久化服务的调用接口, 由 client.Client 实现
type Remote interface {
	AddPoint(ctx context.Context, pointID string, lat, lng float64) error
	AddLine(ctx context.Context, lineID, startID, endID string) error
	RemovePoint(ctx context.Context, pointID string) error
	RemoveLine(ctx context.Context, lineID string) error
	MapData(ctx context.Context) (model.MapData, error)
}

type set map[string]struct{}

func newSet(ids []string) set {
	s := make(set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s set) has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s set) sorted() []string { return slices.Sorted(maps.Keys(s)) }

// Store 地图状态: 点集合、线集合以及收藏
type Store struct {
	mu          sync.Mutex
	points      set
	lines       set
	savedPoints set
	savedLines  set

	session SessionRepository
	remote  Remote
	queue   *Queue
	logger  *slog.Logger
}

// Open 从会话缓存恢复状态并创建 Store
func Open(ctx context.Context, session SessionRepository, remote Remote, queue *Queue, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := session.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Store{
		points:      newSet(st.Points),
		lines:       newSet(st.Lines),
		savedPoints: newSet(st.SavedPoints),
		savedLines:  newSet(st.SavedLines),
		session:     session,
		remote:      remote,
		queue:       queue,
		logger:      logger,
	}, nil
}

// AddPoint 添加点并异步写入远端, 返回点 ID
func (s *Store) AddPoint(lat, lng float64) string {
	id := model.PointID(lat, lng)

	s.mu.Lock()
	s.points[id] = struct{}{}
	s.persistLocked()
	s.mu.Unlock()

	s.enqueue("add-point "+id, func(ctx context.Context) error {
		return s.remote.AddPoint(ctx, id, lat, lng)
	})
	return id
}

// AddLine 连接两点; 已存在 (任一方向) 或首尾相同时不做任何事, 返回 ("", false)
func (s *Store) AddLine(startID, endID string) (string, bool) {
	if startID == endID {
		return "", false
	}
	id := model.LineID(startID, endID)
	start, end := model.CanonicalEndpoints(startID, endID)

	s.mu.Lock()
	if s.hasLineLocked(id) {
		s.mu.Unlock()
		return "", false
	}
	s.lines[id] = struct{}{}
	s.persistLocked()
	s.mu.Unlock()

	s.enqueue("add-line "+id, func(ctx context.Context) error {
		return s.remote.AddLine(ctx, id, start, end)
	})
	return id, true
}

// RemovePoint 删除点以及所有以它为端点的线
func (s *Store) RemovePoint(pointID string) {
	s.mu.Lock()
	delete(s.points, pointID)
	var dropped []string
	for _, lineID := range s.lines.sorted() {
		start, end, err := model.ParseLineID(lineID)
		if err != nil {
			continue
		}
		if start == pointID || end == pointID {
			delete(s.lines, lineID)
			dropped = append(dropped, lineID)
		}
	}
	s.persistLocked()
	s.mu.Unlock()

	for _, lineID := range dropped {
		s.enqueueRemoveLine(lineID)
	}
	s.enqueue("remove-point "+pointID, func(ctx context.Context) error {
		return s.remote.RemovePoint(ctx, pointID)
	})
}

// RemoveLine 删除线
func (s *Store) RemoveLine(lineID string) {
	s.mu.Lock()
	delete(s.lines, lineID)
	s.persistLocked()
	s.mu.Unlock()

	s.enqueueRemoveLine(lineID)
}

// RestorePoint 把缓存的点 ID 放回集合, 不校验也不调用远端
func (s *Store) RestorePoint(pointID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[pointID] = struct{}{}
	s.persistLocked()
}

// RestoreLine 把缓存的线 ID 原样放回集合, 不调用远端
// 反方向的同一条线已存在时不做任何事
func (s *Store) RestoreLine(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasLineLocked(lineKey(lineID)) {
		return
	}
	s.lines[lineID] = struct{}{}
	s.persistLocked()
}

// AddPointFromText 解析文本坐标并添加点
func (s *Store) AddPointFromText(latText, lngText string) (string, error) {
	lat, lng, err := ParseCoordinates(latText, lngText)
	if err != nil {
		return "", err
	}
	return s.AddPoint(lat, lng), nil
}

// ParseCoordinates 解析并校验文本形式的经纬度
func ParseCoordinates(latText, lngText string) (float64, float64, error) {
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if latErr != nil || lngErr != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		return 0, 0, &InputError{Err: ErrInvalidInput}
	}
	if !utils.ValidLat(lat) {
		return 0, 0, &InputError{Field: "lat", Err: ErrOutOfRange}
	}
	if !utils.ValidLng(lng) {
		return 0, 0, &InputError{Field: "lng", Err: ErrOutOfRange}
	}
	return lat, lng, nil
}

// ClearAll 软删除所有点和线, 等待远端调用全部完成后清空本地状态和会话缓存
// ctx 取消时本地状态保持不变
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	points := s.points.sorted()
	lines := s.lines.sorted()
	s.mu.Unlock()

	for _, lineID := range lines {
		s.enqueueRemoveLine(lineID)
	}
	for _, pointID := range points {
		s.enqueue("remove-point "+pointID, func(ctx context.Context) error {
			return s.remote.RemovePoint(ctx, pointID)
		})
	}
	if err := s.queue.Flush(ctx); err != nil {
		return fmt.Errorf("wait for remote removals: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = set{}
	s.lines = set{}
	s.savedPoints = set{}
	s.savedLines = set{}
	if err := s.session.Clear(ctx); err != nil {
		s.logger.Error("clear session failed", "err", err)
	}
	return nil
}

// Pull 用远端 visible 的数据替换本地点和线
func (s *Store) Pull(ctx context.Context) error {
	data, err := s.remote.MapData(ctx)
	if err != nil {
		return fmt.Errorf("fetch map data: %w", err)
	}

	points := make(set, len(data.Points))
	for _, p := range data.Points {
		points[p.PointID] = struct{}{}
	}
	// 本地保留服务端的 line_id, 否则之后的软删除对不上行
	lines := make(set, len(data.Lines))
	seen := make(map[string]bool, len(data.Lines))
	for _, l := range data.Lines {
		key := lineKey(l.LineID)
		if seen[key] {
			continue
		}
		seen[key] = true
		lines[l.LineID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = points
	s.lines = lines
	s.persistLocked()
	return nil
}

// SavePoint 收藏点 (仅本地)
func (s *Store) SavePoint(pointID string) { s.toggle(&s.savedPoints, pointID, true) }

// DeleteSavedPoint 取消收藏点
func (s *Store) DeleteSavedPoint(pointID string) { s.toggle(&s.savedPoints, pointID, false) }

// SaveLine 收藏线 (仅本地)
func (s *Store) SaveLine(lineID string) { s.toggle(&s.savedLines, lineID, true) }

// DeleteSavedLine 取消收藏线
func (s *Store) DeleteSavedLine(lineID string) { s.toggle(&s.savedLines, lineID, false) }

func (s *Store) toggle(target *set, id string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		(*target)[id] = struct{}{}
	} else {
		delete(*target, id)
	}
	s.persistLocked()
}

// Points 当前点 ID (排序后)
func (s *Store) Points() []string { return s.snapshot(func() set { return s.points }) }

// Lines 当前线 ID (排序后)
func (s *Store) Lines() []string { return s.snapshot(func() set { return s.lines }) }

// SavedPoints 收藏的点 ID
func (s *Store) SavedPoints() []string { return s.snapshot(func() set { return s.savedPoints }) }

// SavedLines 收藏的线 ID
func (s *Store) SavedLines() []string { return s.snapshot(func() set { return s.savedLines }) }

func (s *Store) snapshot(pick func() set) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pick().sorted()
}

// HasPoint 点是否在当前集合中
func (s *Store) HasPoint(pointID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points.has(pointID)
}

// Flush 等待所有已提交的远端调用完成
func (s *Store) Flush(ctx context.Context) error { return s.queue.Flush(ctx) }

// Close 执行完剩余远端调用后关闭队列
func (s *Store) Close() { s.queue.Close() }

// lineKey 线的规范键: 可解析时端点排序, 否则为原 ID
func lineKey(lineID string) string {
	start, end, err := model.ParseLineID(lineID)
	if err != nil {
		return lineID
	}
	return model.LineID(start, end)
}

// hasLineLocked 是否已有规范键为 key 的线 (任一方向), 调用方需持有 s.mu
func (s *Store) hasLineLocked(key string) bool {
	if s.lines.has(key) {
		return true
	}
	for id := range s.lines {
		if lineKey(id) == key {
			return true
		}
	}
	return false
}

func (s *Store) enqueueRemoveLine(lineID string) {
	s.enqueue("remove-line "+lineID, func(ctx context.Context) error {
		return s.remote.RemoveLine(ctx, lineID)
	})
}

func (s *Store) enqueue(name string, run func(ctx context.Context) error) {
	// 队列关闭时 Submit 已经记录日志
	_ = s.queue.Submit(name, run)
}

// persistLocked 把当前状态写入会话缓存, 调用方需持有 s.mu
func (s *Store) persistLocked() {
	st := State{
		Points:      s.points.sorted(),
		Lines:       s.lines.sorted(),
		SavedPoints: s.savedPoints.sorted(),
		SavedLines:  s.savedLines.sorted(),
	}
	if err := s.session.Save(context.Background(), st); err != nil {
		s.logger.Error("save session failed", "err", err)
	}
}
