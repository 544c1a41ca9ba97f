package algo

import (
	"container/heap"
	"fmt"
	"math"
	"slices"
	"strings"
)

// PathResult 最短路径结果
type PathResult struct {
	Path     []string // 点 ID 序列
	Lines    []string // 经过的线 ID
	Distance float64  // 总距离 (米)
	Found    bool     // 是否找到路径
}

// PriorityQueueItem 优先队列中的元素
type PriorityQueueItem struct {
	NodeID string
	Cost   float64 // 距离成本 (米)
	Index  int     // 在堆中的索引
}

// PriorityQueue 实现 heap.Interface 接口的优先队列
type PriorityQueue []*PriorityQueueItem

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	return pq[i].Cost < pq[j].Cost
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*PriorityQueueItem)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // 避免内存泄漏
	item.Index = -1 // 标记为已移除
	*pq = old[0 : n-1]
	return item
}

// Dijkstra 沿已连的线寻找两点之间的最短路径
func (g *Graph) Dijkstra(startID, endID string) PathResult {
	if !g.Nodes[startID] || !g.Nodes[endID] {
		return PathResult{Found: false}
	}

	dist := make(map[string]float64)
	prevEdge := make(map[string]*Edge)
	visited := make(map[string]bool)

	for id := range g.Nodes {
		dist[id] = math.Inf(1)
	}
	dist[startID] = 0

	pq := make(PriorityQueue, 0)
	heap.Init(&pq)
	heap.Push(&pq, &PriorityQueueItem{NodeID: startID, Cost: 0})

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*PriorityQueueItem)
		currentID := current.NodeID

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		// 到达终点，提前退出
		if currentID == endID {
			break
		}

		for _, edge := range g.GetNeighbors(currentID) {
			newCost := dist[currentID] + edge.Dist
			if newCost < dist[edge.To] {
				dist[edge.To] = newCost
				prevEdge[edge.To] = edge
				heap.Push(&pq, &PriorityQueueItem{NodeID: edge.To, Cost: newCost})
			}
		}
	}

	if math.IsInf(dist[endID], 1) {
		return PathResult{Found: false}
	}

	// 回溯路径
	path := []string{endID}
	var lines []string
	for at := endID; at != startID; {
		edge := prevEdge[at]
		lines = append(lines, edge.LineID)
		at = edge.From
		path = append(path, at)
	}
	slices.Reverse(path)
	slices.Reverse(lines)

	return PathResult{
		Path:     path,
		Lines:    lines,
		Distance: dist[endID],
		Found:    true,
	}
}

// FormatPath 格式化路径结果为可读字符串
func FormatPath(result PathResult) string {
	if !result.Found {
		return "no path"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Distance: %.1f m (%.2f km)\n", result.Distance, result.Distance/1000)
	for i, id := range result.Path {
		fmt.Fprintf(&b, "%d. %s\n", i+1, id)
	}
	return b.String()
}
