package composite

import "image"

// Export 编码后的输出及建议文件名
type Export struct {
	Data     []byte
	Format   ExportFormat
	Filename string
	Width    int
	Height   int
}

// Pipeline 依次执行 ResolveForeground、Compose、Encode
func Pipeline(source image.Image, fg Foreground, req Request, f ExportFormat) (*Export, error) {
	resolved, err := ResolveForeground(source, fg)
	if err != nil {
		return nil, err
	}
	out, err := Compose(resolved, req)
	if err != nil {
		return nil, err
	}
	data, err := EncodeBytes(out, f, req.Background)
	if err != nil {
		return nil, err
	}
	return &Export{
		Data:     data,
		Format:   f,
		Filename: Filename(DefaultFilename, f),
		Width:    out.Rect.Dx(),
		Height:   out.Rect.Dy(),
	}, nil
}
