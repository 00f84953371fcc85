package composite

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Background 合成背景：不透明纯色或透明
type Background struct {
	Color       color.NRGBA
	Transparent bool
}

var (
	White       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Transparent = Background{Transparent: true}
)

// Solid 返回不透明纯色背景，忽略输入颜色的 alpha
func Solid(c color.Color) Background {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return Background{Color: n}
}

// ParseBackground 解析 "#RRGGBB"、"#RGB" 或 "transparent"
func ParseBackground(s string) (Background, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "transparent" {
		return Transparent, nil
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Background{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Background{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Solid(color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}), nil
}

func (b Background) String() string {
	if b.Transparent {
		return "transparent"
	}
	return fmt.Sprintf("#%02X%02X%02X", b.Color.R, b.Color.G, b.Color.B)
}

// flattenColor JPEG 等不支持 alpha 的格式使用的铺底色，透明背景强制为白色
func (b Background) flattenColor() color.NRGBA {
	if b.Transparent {
		return White
	}
	c := b.Color
	c.A = 0xff
	return c
}
