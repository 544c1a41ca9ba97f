package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions 路由所需依赖
type RouterOptions struct {
	Repo     MapRepository
	Auth     *Auth // nil 表示不启用认证
	Registry *prometheus.Registry
}

// NewRouter 配置中间件与路由
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	var metrics *Metrics
	if opts.Registry != nil {
		metrics = NewMetrics(opts.Registry)
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Backend is running")
	})

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "ok"})
	})

	h := NewMapHandler(opts.Repo, metrics)
	r.GET("/map-data", h.GetMapData)

	writes := r.Group("/")
	if opts.Auth != nil {
		r.POST("/login", opts.Auth.Login)
		writes.Use(opts.Auth.Middleware())
	}
	{
		writes.POST("/add-point", h.AddPoint)
		writes.POST("/add-line", h.AddLine)
		writes.POST("/remove-point", h.RemovePoint)
		writes.POST("/remove-line", h.RemoveLine)
	}
	return r
}
