package service

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/model"
)

// EncodeRecord 把前景描述转成可存储的记录，图像以 PNG 保存
func EncodeRecord(fg composite.Foreground) (*model.ForegroundRecord, error) {
	switch d := fg.(type) {
	case composite.Cutout:
		data, err := encodePNG(d.Image)
		if err != nil {
			return nil, err
		}
		b := d.Image.Bounds()
		return &model.ForegroundRecord{
			Kind:   composite.KindCutout,
			Image:  data,
			Width:  b.Dx(),
			Height: b.Dy(),
		}, nil

	case composite.GrayscaleMask:
		data, err := encodePNG(d.Mask)
		if err != nil {
			return nil, err
		}
		b := d.Mask.Bounds()
		rec := &model.ForegroundRecord{
			Kind:   composite.KindMask,
			Image:  data,
			Mode:   "binary",
			Width:  b.Dx(),
			Height: b.Dy(),
		}
		if d.Mode.IsDirect() {
			rec.Mode = "direct"
		} else {
			rec.Threshold = int(d.Mode.Threshold())
		}
		return rec, nil

	case composite.Polygons:
		rec := &model.ForegroundRecord{
			Kind:   composite.KindPolygons,
			Groups: make([]model.PolygonGroup, 0, len(d.Groups)),
			Width:  d.Width,
			Height: d.Height,
		}
		for _, g := range d.Groups {
			mg := model.PolygonGroup{Label: g.Label, Polygons: make([][][2]float64, 0, len(g.Polygons))}
			for _, poly := range g.Polygons {
				pts := make([][2]float64, len(poly))
				for i, p := range poly {
					pts[i] = [2]float64{p.X, p.Y}
				}
				mg.Polygons = append(mg.Polygons, pts)
			}
			rec.Groups = append(rec.Groups, mg)
		}
		return rec, nil

	default:
		return nil, composite.ErrUnknownForeground
	}
}

// DecodeRecord 把存储的记录还原为前景描述
func DecodeRecord(rec *model.ForegroundRecord) (composite.Foreground, error) {
	if rec == nil {
		return nil, composite.ErrUnknownForeground
	}

	switch rec.Kind {
	case composite.KindCutout:
		img, err := DecodeImage(rec.Image)
		if err != nil {
			return nil, err
		}
		return composite.Cutout{Image: img}, nil

	case composite.KindMask:
		img, err := DecodeImage(rec.Image)
		if err != nil {
			return nil, err
		}
		mode, err := composite.ParseThresholdMode(rec.Mode, rec.Threshold)
		if err != nil {
			return nil, err
		}
		return composite.GrayscaleMask{Mask: img, Mode: mode}, nil

	case composite.KindPolygons:
		groups := make([]composite.PolygonGroup, 0, len(rec.Groups))
		for _, g := range rec.Groups {
			cg := composite.PolygonGroup{Label: g.Label, Polygons: make([]composite.Polygon, 0, len(g.Polygons))}
			for _, pts := range g.Polygons {
				poly := make(composite.Polygon, len(pts))
				for i, p := range pts {
					poly[i] = composite.Point{X: p[0], Y: p[1]}
				}
				cg.Polygons = append(cg.Polygons, poly)
			}
			groups = append(groups, cg)
		}
		return composite.Polygons{Groups: groups, Width: rec.Width, Height: rec.Height}, nil

	default:
		return nil, fmt.Errorf("%w: kind %q", composite.ErrUnknownForeground, rec.Kind)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
