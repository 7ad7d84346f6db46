package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gymtrack/internal/apperr"
	_ "golang.org/x/image/webp"
)

const (
	// MaxMediaBytes 限制单张动作图片的大小
	MaxMediaBytes = 5 << 20
	maxMediaSide  = 4096
)

var mediaExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// MediaService 负责保存动作配图。
// 文件写入 dir，对外地址以 urlPath 为前缀。
type MediaService struct {
	dir     string
	urlPath string
	now     func() time.Time
}

// StoredMedia 描述已保存的图片
type StoredMedia struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewMediaService 构造 MediaService
func NewMediaService(dir, urlPath string) *MediaService {
	urlPath = strings.TrimSpace(urlPath)
	if urlPath == "" {
		urlPath = "/static/uploads"
	}
	return &MediaService{
		dir:     dir,
		urlPath: "/" + strings.Trim(urlPath, "/"),
		now:     time.Now,
	}
}

// SaveImage 校验图片格式与尺寸后写入上传目录，文件名使用 日期-uuid 形式
func (s *MediaService) SaveImage(r io.Reader) (*StoredMedia, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w: %w", apperr.ErrIO, err)
	}
	if len(data) == 0 {
		return nil, apperr.Invalid("image", "未找到上传的图片")
	}
	if len(data) > MaxMediaBytes {
		return nil, apperr.Invalid("image", "图片大小不能超过 5MB")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Invalid("image", "只允许上传 JPEG、PNG、GIF 或 WebP 图片")
	}
	ext, ok := mediaExtensions[format]
	if !ok {
		return nil, apperr.Invalid("image", "只允许上传 JPEG、PNG、GIF 或 WebP 图片")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxMediaSide || cfg.Height > maxMediaSide {
		return nil, apperr.Invalid("image", "图片尺寸不合法")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w: %w", apperr.ErrIO, err)
	}

	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.New().String(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("save image: %w: %w", apperr.ErrIO, err)
	}

	return &StoredMedia{
		URL:    path.Join(s.urlPath, name),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Dir 返回上传目录
func (s *MediaService) Dir() string {
	return s.dir
}

// URLPath 返回上传文件的访问前缀
func (s *MediaService) URLPath() string {
	return s.urlPath
}
