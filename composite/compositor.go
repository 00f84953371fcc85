package composite

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Request 合成参数，宽高不为正时回退到前景自身尺寸
type Request struct {
	Width      int
	Height     int
	Background Background
}

// Compose 先铺背景色，再把前景按比例缩放居中，以 source-over 叠加到输出画布上
func Compose(foreground image.Image, req Request) (*image.NRGBA, error) {
	fg, err := ToRaster(foreground)
	if err != nil {
		return nil, err
	}
	fw, fh := fg.Rect.Dx(), fg.Rect.Dy()

	w, h := req.Width, req.Height
	if w <= 0 {
		w = fw
	}
	if h <= 0 {
		h = fh
	}

	p, err := FitCentered(fw, fh, w, h)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if !req.Background.Transparent {
		bg := req.Background.Color
		bg.A = 0xff
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	// 源坐标到目标坐标的仿射变换，平移量可以是小数
	s2d := f64.Aff3{
		p.DrawW / float64(fw), 0, p.X,
		0, p.DrawH / float64(fh), p.Y,
	}
	draw.BiLinear.Transform(canvas, s2d, fg, fg.Bounds(), draw.Over, nil)

	out := image.NewNRGBA(canvas.Bounds())
	draw.Draw(out, out.Bounds(), canvas, image.Point{}, draw.Src)
	return out, nil
}
