package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/model"
)

// ParseSegmentation 解析远程分割服务或编辑页提交的多边形文档，
// 返回坐标位于 width×height 源图坐标系的 Polygons。
//
// 支持两种格式：
//
//	{"<TASK>": {"polygons": [[[x1,y1,x2,y2,...]]], "labels": ["..."]}}
//	{"polygons": [{"points": [[x,y],...], "label": "..."}], "width": W, "height": H}
func ParseSegmentation(data []byte, width, height int) (composite.Polygons, error) {
	if width <= 0 || height <= 0 {
		return composite.Polygons{}, fmt.Errorf("%w: %dx%d", composite.ErrInvalidDimensions, width, height)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return composite.Polygons{}, fmt.Errorf("%w: %v", ErrMalformedSegmentation, err)
	}

	var (
		fg  composite.Polygons
		err error
	)
	if _, ok := doc["polygons"]; ok {
		fg, err = parseEditorDocument(data, width, height)
	} else {
		fg, err = parseFlorenceDocument(doc, width, height)
	}
	if err != nil {
		return composite.Polygons{}, err
	}

	if countPoints(fg) == 0 {
		return composite.Polygons{}, fmt.Errorf("%w: no polygons", ErrMalformedSegmentation)
	}
	return fg, nil
}

func parseEditorDocument(data []byte, width, height int) (composite.Polygons, error) {
	var doc model.EditorDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return composite.Polygons{}, fmt.Errorf("%w: %v", ErrMalformedSegmentation, err)
	}

	groups := make([]composite.PolygonGroup, 0, len(doc.Polygons))
	for i, p := range doc.Polygons {
		poly := make(composite.Polygon, 0, len(p.Points))
		for _, pt := range p.Points {
			if len(pt) != 2 {
				return composite.Polygons{}, fmt.Errorf("%w: polygon %d has a point with %d coordinates", ErrMalformedSegmentation, i, len(pt))
			}
			poly = append(poly, composite.Point{X: pt[0], Y: pt[1]})
		}
		groups = append(groups, composite.PolygonGroup{Label: p.Label, Polygons: []composite.Polygon{poly}})
	}

	fg := composite.Polygons{Groups: groups, Width: width, Height: height}
	if doc.Width > 0 && doc.Height > 0 && (doc.Width != width || doc.Height != height) {
		// 只允许等比换算，宽高比不同说明文档对应的不是这张源图
		if int64(doc.Width)*int64(height) != int64(doc.Height)*int64(width) {
			return composite.Polygons{}, fmt.Errorf("%w: document %dx%d, source %dx%d",
				composite.ErrDimensionMismatch, doc.Width, doc.Height, width, height)
		}
		fg.Width, fg.Height = doc.Width, doc.Height
		return fg.ScaleTo(width, height)
	}
	return fg, nil
}

func parseFlorenceDocument(doc map[string]json.RawMessage, width, height int) (composite.Polygons, error) {
	var raw json.RawMessage
	for key, v := range doc {
		if strings.HasPrefix(key, "<") && strings.HasSuffix(key, ">") {
			raw = v
			break
		}
	}
	if raw == nil {
		return composite.Polygons{}, fmt.Errorf("%w: no task result", ErrMalformedSegmentation)
	}

	var res model.FlorenceResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return composite.Polygons{}, fmt.Errorf("%w: %v", ErrMalformedSegmentation, err)
	}

	groups := make([]composite.PolygonGroup, 0, len(res.Polygons))
	for i, region := range res.Polygons {
		g := composite.PolygonGroup{Polygons: make([]composite.Polygon, 0, len(region))}
		if i < len(res.Labels) {
			g.Label = res.Labels[i]
		}
		for _, flat := range region {
			if len(flat)%2 != 0 {
				return composite.Polygons{}, fmt.Errorf("%w: odd coordinate count %d in region %d", ErrMalformedSegmentation, len(flat), i)
			}
			poly := make(composite.Polygon, 0, len(flat)/2)
			for j := 0; j < len(flat); j += 2 {
				poly = append(poly, composite.Point{X: flat[j], Y: flat[j+1]})
			}
			g.Polygons = append(g.Polygons, poly)
		}
		groups = append(groups, g)
	}
	return composite.Polygons{Groups: groups, Width: width, Height: height}, nil
}

func countPoints(fg composite.Polygons) int {
	n := 0
	for _, g := range fg.Groups {
		for _, p := range g.Polygons {
			n += len(p)
		}
	}
	return n
}
