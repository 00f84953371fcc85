package model

// UploadResponse 上传响应
type UploadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *Session `json:"data,omitempty"`
}

// ComposeRequest 合成参数，宽高为 0 时使用前景自身尺寸
type ComposeRequest struct {
	Width      int    `json:"width" form:"width"`
	Height     int    `json:"height" form:"height"`
	Background string `json:"background" form:"background"`
	Format     string `json:"format" form:"format"`
	Quality    int    `json:"quality" form:"quality"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
