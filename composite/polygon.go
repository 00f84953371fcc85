package composite

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Point 图像坐标系中的点，y 轴向下
type Point struct {
	X, Y float64
}

// Polygon 闭合多边形，最后一点隐式连回第一点
type Polygon []Point

// PolygonGroup 同一标签下的一组多边形（可包含多个互不相交的环）
type PolygonGroup struct {
	Label    string
	Polygons []Polygon
}

func (p Polygon) drawable() bool {
	if len(p) < 3 {
		return false
	}
	for _, pt := range p {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return false
		}
	}
	return true
}

// Scale 返回按 sx、sy 缩放后的副本
func (g PolygonGroup) Scale(sx, sy float64) PolygonGroup {
	out := PolygonGroup{Label: g.Label, Polygons: make([]Polygon, len(g.Polygons))}
	for i, poly := range g.Polygons {
		scaled := make(Polygon, len(poly))
		for j, pt := range poly {
			scaled[j] = Point{X: pt.X * sx, Y: pt.Y * sy}
		}
		out.Polygons[i] = scaled
	}
	return out
}

// RasterizePolygons 把多边形组填充为 width×height 的二值掩码。
//
// 以像素中心 (x+0.5, y+0.5) 采样：组内按非零环绕规则判断，中心落在边界上也算前景；
// 组与组之间取并集。少于 3 个点的多边形直接跳过。
func RasterizePolygons(groups []PolygonGroup, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask %dx%d", ErrInvalidDimensions, width, height)
	}

	mask := image.NewGray(image.Rect(0, 0, width, height))
	var crossings []crossing

	for _, g := range groups {
		edges, minY, maxY := collectEdges(g.Polygons)
		if len(edges) == 0 {
			continue
		}

		top := math.Max(0, math.Floor(minY-0.5))
		bottom := math.Min(float64(height-1), math.Ceil(maxY-0.5))
		if top > bottom {
			continue
		}
		for y := int(top); y <= int(bottom); y++ {
			row := mask.Pix[y*mask.Stride : y*mask.Stride+width]
			crossings = scanRow(row, edges, float64(y)+0.5, crossings[:0])
		}
	}

	return mask, nil
}

// edge 多边形的一条有向边，dir 为 +1（y 增大）或 -1，水平边为 0
type edge struct {
	x0, y0, x1, y1 float64
	dir            int
}

type crossing struct {
	x   float64
	dir int
}

func collectEdges(polygons []Polygon) ([]edge, float64, float64) {
	var edges []edge
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range polygons {
		if !p.drawable() {
			continue
		}
		for i, a := range p {
			b := p[(i+1)%len(p)]
			e := edge{x0: a.X, y0: a.Y, x1: b.X, y1: b.Y}
			switch {
			case b.Y > a.Y:
				e.dir = 1
			case b.Y < a.Y:
				e.dir = -1
			}
			edges = append(edges, e)
			minY = math.Min(minY, a.Y)
			maxY = math.Max(maxY, a.Y)
		}
	}
	return edges, minY, maxY
}

// scanRow 填充扫描线 cy 上环绕数非零或恰好落在边上的像素中心
func scanRow(row []uint8, edges []edge, cy float64, crossings []crossing) []crossing {
	for _, e := range edges {
		if e.dir == 0 {
			if e.y0 == cy {
				fillSpan(row, math.Min(e.x0, e.x1), math.Max(e.x0, e.x1))
			}
			continue
		}

		lo, hi := math.Min(e.y0, e.y1), math.Max(e.y0, e.y1)
		if cy < lo || cy > hi {
			continue
		}
		x := e.x0 + (cy-e.y0)*(e.x1-e.x0)/(e.y1-e.y0)
		if cy < hi {
			crossings = append(crossings, crossing{x: x, dir: e.dir})
		}
		// 中心恰好在边上
		if c := x - 0.5; c == math.Trunc(c) {
			fillSpan(row, x, x)
		}
	}

	sort.Slice(crossings, func(i, j int) bool { return crossings[i].x < crossings[j].x })

	winding := 0
	for i := 0; i+1 < len(crossings); i++ {
		winding += crossings[i].dir
		if winding != 0 {
			fillSpan(row, crossings[i].x, crossings[i+1].x)
		}
	}
	return crossings
}

// fillSpan 填充中心位于 [a, b] 内的像素
func fillSpan(row []uint8, a, b float64) {
	x0 := math.Ceil(a - 0.5)
	x1 := math.Floor(b - 0.5)
	if x0 < 0 {
		x0 = 0
	}
	last := float64(len(row) - 1)
	if x1 > last {
		x1 = last
	}
	if x0 > x1 {
		return
	}
	for x := int(x0); x <= int(x1); x++ {
		row[x] = 0xff
	}
}
