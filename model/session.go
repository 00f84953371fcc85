package model

// ForegroundPending 会话尚无前景描述
const ForegroundPending = "pending"

// Session 一次证件照编辑会话
type Session struct {
	ID          string `json:"id"`
	MD5         string `json:"md5"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Foreground  string `json:"foreground"` // cutout, mask, polygons, pending
	CreatedAt   int64  `json:"created_at"`
}

// ForegroundRecord 持久化的前景描述
type ForegroundRecord struct {
	Kind      string         `json:"kind"`
	Image     []byte         `json:"image,omitempty"` // PNG，cutout 或 mask
	Mode      string         `json:"mode,omitempty"`  // binary, direct
	Threshold int            `json:"threshold,omitempty"`
	Groups    []PolygonGroup `json:"groups,omitempty"`
	Width     int            `json:"width,omitempty"`
	Height    int            `json:"height,omitempty"`
}

// PolygonGroup 同一标签下的多边形集合，点为 [x, y]
type PolygonGroup struct {
	Label    string         `json:"label"`
	Polygons [][][2]float64 `json:"polygons"`
}
