package model

// AddPointRequest POST /add-point
// Lat/Lng 用指针区分缺失和 0
type AddPointRequest struct {
	PointID string   `json:"pointId" binding:"required"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
}

// AddLineRequest POST /add-line
type AddLineRequest struct {
	LineID string `json:"lineId" binding:"required"`
	Start  string `json:"start" binding:"required"`
	End    string `json:"end" binding:"required"`
}

// RemovePointRequest POST /remove-point
type RemovePointRequest struct {
	PointID string `json:"pointId" binding:"required"`
}

// RemoveLineRequest POST /remove-line
type RemoveLineRequest struct {
	LineID string `json:"lineId" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}
