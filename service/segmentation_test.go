package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonylow1993/idphoto/composite"
)

func TestParseSegmentation_Florence(t *testing.T) {
	t.Parallel()

	doc := `{"<REFERRING_EXPRESSION_SEGMENTATION>": {
		"polygons": [[[10, 10, 90, 10, 90, 90, 10, 90]], [[0, 0, 5, 0, 5, 5], [20, 20, 30, 20, 30, 30]]],
		"labels": ["person"]
	}}`

	fg, err := ParseSegmentation([]byte(doc), 100, 100)
	require.NoError(t, err)

	assert.Equal(t, 100, fg.Width)
	assert.Equal(t, 100, fg.Height)
	require.Len(t, fg.Groups, 2)
	assert.Equal(t, "person", fg.Groups[0].Label)
	assert.Equal(t, "", fg.Groups[1].Label)
	assert.Equal(t, composite.Polygon{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}}, fg.Groups[0].Polygons[0])
	assert.Len(t, fg.Groups[1].Polygons, 2)
}

func TestParseSegmentation_Editor(t *testing.T) {
	t.Parallel()

	doc := `{"polygons": [{"points": [[10,10],[90,10],[90,90],[10,90]], "label": "object"}], "width": 100, "height": 100}`

	fg, err := ParseSegmentation([]byte(doc), 100, 100)
	require.NoError(t, err)
	require.Len(t, fg.Groups, 1)
	assert.Equal(t, "object", fg.Groups[0].Label)
	assert.Equal(t, composite.Point{X: 90, Y: 90}, fg.Groups[0].Polygons[0][2])

	// 文档尺寸与源图等比不同，坐标按比例换算
	scaled, err := ParseSegmentation([]byte(doc), 200, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, scaled.Width)
	assert.Equal(t, 200, scaled.Height)
	assert.Equal(t, composite.Point{X: 180, Y: 180}, scaled.Groups[0].Polygons[0][2])

	// 未声明尺寸时按源图坐标系处理
	bare := `{"polygons": [{"points": [[1,1],[2,1],[2,2]], "label": ""}]}`
	fg, err = ParseSegmentation([]byte(bare), 10, 10)
	require.NoError(t, err)
	assert.Equal(t, composite.Point{X: 2, Y: 2}, fg.Groups[0].Polygons[0][2])
}

func TestParseSegmentation_EditorAspectMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"宽高比不同", 200, 50, true},
		{"只有宽度不同", 150, 100, true},
		{"等比缩小", 50, 50, false},
		{"尺寸相同", 100, 100, false},
	}

	doc := `{"polygons": [{"points": [[10,10],[90,10],[90,90],[10,90]]}], "width": 100, "height": 100}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fg, err := ParseSegmentation([]byte(doc), tt.width, tt.height)
			if tt.wantErr {
				assert.ErrorIs(t, err, composite.ErrDimensionMismatch)
				assert.NotErrorIs(t, err, ErrMalformedSegmentation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, fg.Width)
			assert.Equal(t, tt.height, fg.Height)
		})
	}
}

func TestParseSegmentation_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"不是JSON", `this is not json`},
		{"空多边形", `{"polygons": [], "width": 100, "height": 100}`},
		{"缺少任务键", `{"someData": "segmented"}`},
		{"坐标数量为奇数", `{"<OD>": {"polygons": [[[1, 2, 3]]], "labels": []}}`},
		{"坐标不是数字", `{"<OD>": {"polygons": [[["a", "b", "c", "d"]]]}}`},
		{"点不是二元组", `{"polygons": [{"points": [[1,2,3]]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseSegmentation([]byte(tt.doc), 100, 100)
			assert.ErrorIs(t, err, ErrMalformedSegmentation)
		})
	}
}

func TestParseSegmentation_InvalidDimensions(t *testing.T) {
	t.Parallel()

	_, err := ParseSegmentation([]byte(`{"polygons": []}`), 0, 10)
	assert.ErrorIs(t, err, composite.ErrInvalidDimensions)
}
