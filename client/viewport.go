package client

import "math"

// Size 宽高
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ComputeViewport 以本地玩家为中心计算相机原点，并裁剪到 [0, world-view]
// 世界某一轴比视口小时，下界优先，该轴原点固定为 0
func ComputeViewport(local Point, world, view Size) Point {
	return Point{
		X: clampAxis(local.X-view.Width/2, world.Width-view.Width),
		Y: clampAxis(local.Y-view.Height/2, world.Height-view.Height),
	}
}

func clampAxis(v, upper float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Min(v, upper)
	return math.Max(v, 0)
}
