package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"drone-map/model"
)

// MapRepository 持久化接口, 由 db.MapStore 实现
type MapRepository interface {
	UpsertPoint(ctx context.Context, pointID string, lat, lng float64) error
	UpsertLine(ctx context.Context, lineID, startID, endID string) error
	RemovePoint(ctx context.Context, pointID string) error
	RemoveLine(ctx context.Context, lineID string) error
	VisibleMapData(ctx context.Context) (model.MapData, error)
}

// MapHandler 地图数据接口
type MapHandler struct {
	Repo    MapRepository
	Metrics *Metrics
}

// NewMapHandler 创建 MapHandler, metrics 可以为 nil
func NewMapHandler(repo MapRepository, metrics *Metrics) *MapHandler {
	return &MapHandler{Repo: repo, Metrics: metrics}
}

// GetMapData 返回所有 visible 的点和线
func (h *MapHandler) GetMapData(c *gin.Context) {
	data, err := h.Repo.VisibleMapData(c.Request.Context())
	if err != nil {
		h.fail(c, "map-data", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// AddPoint 保存点 (冲突时覆盖)
func (h *MapHandler) AddPoint(c *gin.Context) {
	var req model.AddPointRequest
	if !h.bind(c, "add-point", &req) {
		return
	}
	h.respond(c, "add-point", h.Repo.UpsertPoint(c.Request.Context(), req.PointID, *req.Lat, *req.Lng))
}

// AddLine 保存线 (冲突时覆盖)
func (h *MapHandler) AddLine(c *gin.Context) {
	var req model.AddLineRequest
	if !h.bind(c, "add-line", &req) {
		return
	}
	h.respond(c, "add-line", h.Repo.UpsertLine(c.Request.Context(), req.LineID, req.Start, req.End))
}

// RemovePoint 软删除点
func (h *MapHandler) RemovePoint(c *gin.Context) {
	var req model.RemovePointRequest
	if !h.bind(c, "remove-point", &req) {
		return
	}
	h.respond(c, "remove-point", h.Repo.RemovePoint(c.Request.Context(), req.PointID))
}

// RemoveLine 软删除线
func (h *MapHandler) RemoveLine(c *gin.Context) {
	var req model.RemoveLineRequest
	if !h.bind(c, "remove-line", &req) {
		return
	}
	h.respond(c, "remove-line", h.Repo.RemoveLine(c.Request.Context(), req.LineID))
}

func (h *MapHandler) respond(c *gin.Context, op string, err error) {
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.Metrics.observe(op, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// fail 记录日志并返回 500 + 原始错误信息
func (h *MapHandler) fail(c *gin.Context, op string, err error) {
	h.Metrics.observe(op, false)
	slog.Error("query failed", "op", op, "request_id", c.GetString(requestIDKey), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// bind 解析请求体, 失败时和查询失败一样返回 500 + {error}
func (h *MapHandler) bind(c *gin.Context, op string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.fail(c, op, fmt.Errorf("请求参数错误: %w", err))
		return false
	}
	return true
}
