package algo

import (
	"drone-map/model"
	"drone-map/utils"
)

// Edge 邻接表中的一条边 (无向线拆成两条有向边)
type Edge struct {
	From   string
	To     string
	Dist   float64 // 球面距离 (米)
	LineID string
}

// Graph 由当前点和线构成的无向图
type Graph struct {
	Nodes   map[string]bool    // 点 ID 集合
	AdjList map[string][]*Edge // 邻接表 (ID -> 边列表)
}

// NewGraph 创建一个空的图
func NewGraph() *Graph {
	return &Graph{
		Nodes:   make(map[string]bool),
		AdjList: make(map[string][]*Edge),
	}
}

// BuildGraph 根据点 ID 和线 ID 建图
// 无法解析的 ID 以及端点不在点集合中的线会被跳过
func BuildGraph(pointIDs, lineIDs []string) *Graph {
	g := NewGraph()
	for _, id := range pointIDs {
		g.Nodes[id] = true
	}

	for _, lineID := range lineIDs {
		from, to, err := model.ParseLineID(lineID)
		if err != nil || !g.Nodes[from] || !g.Nodes[to] {
			continue
		}
		dist, err := utils.LineLength(lineID)
		if err != nil {
			continue
		}
		// 线是无向的, 两个方向都加
		g.AdjList[from] = append(g.AdjList[from], &Edge{From: from, To: to, Dist: dist, LineID: lineID})
		g.AdjList[to] = append(g.AdjList[to], &Edge{From: to, To: from, Dist: dist, LineID: lineID})
	}
	return g
}

// GetNeighbors 获取指定点的邻居边
func (g *Graph) GetNeighbors(nodeID string) []*Edge {
	return g.AdjList[nodeID]
}
