package model

// EditorDocument 编辑页使用的分割结果格式
type EditorDocument struct {
	Polygons []EditorPolygon `json:"polygons"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
}

type EditorPolygon struct {
	Points [][]float64 `json:"points"`
	Label  string      `json:"label"`
}

// FlorenceResult Florence-2 分割任务的返回值，位于 "<TASK>" 键下。
// Polygons[i] 是第 i 个区域的多边形列表，每个多边形为 x1,y1,x2,y2... 平铺坐标
type FlorenceResult struct {
	Polygons [][][]float64 `json:"polygons"`
	Labels   []string      `json:"labels"`
}
