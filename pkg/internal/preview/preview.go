// Package preview 根据文件内容生成 JPEG 缩略图.
//
// 图片在进程内解码与缩放, 视频通过 FrameExtractor 抽取一帧后按图片处理.
// 该包不关心存储与数据库, 由 service 层负责读取原件与写回结果.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"os"
	"strings"
	"time"

	// 注册标准库解码器.
	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	// 注册扩展解码器.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Kind 按 MIME 前缀划分的预览类型.
type Kind string

const (
	KindNone  Kind = ""
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MaxPixels 解码前允许的最大像素数, 超出视为无法生成.
const MaxPixels = 64 << 20

var (
	// ErrNoFrame 视频在给定偏移处没有可用帧.
	ErrNoFrame = errors.New("preview: no frame extracted")
	// ErrTooLarge 图片尺寸超过 MaxPixels.
	ErrTooLarge = errors.New("preview: image dimensions too large")
	// ErrUnsupported 该 MIME 类型不生成预览.
	ErrUnsupported = errors.New("preview: unsupported mime type")
)

// KindOf 根据 MIME 类型判断预览类型.
func KindOf(mimeType string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	default:
		return KindNone
	}
}

// Options 缩略图参数.
type Options struct {
	MaxDimension int           // 长边上限, 小图不放大
	JPEGQuality  int           // 1-100
	FrameOffset  time.Duration // 视频抽帧位置
	TempDir      string        // 视频落盘目录, 空表示系统临时目录
}

// Renderer 生成缩略图.
type Renderer struct {
	opts   Options
	frames FrameExtractor
}

// NewRenderer 创建 Renderer, frames 为空时视频不可用.
func NewRenderer(opts Options, frames FrameExtractor) *Renderer {
	return &Renderer{opts: opts, frames: frames}
}

// Render 根据 MIME 类型从 src 生成 JPEG 缩略图.
// 不支持的类型返回 ErrUnsupported.
func (r *Renderer) Render(ctx context.Context, mimeType string, src io.Reader) ([]byte, error) {
	switch KindOf(mimeType) {
	case KindImage:
		return r.Image(ctx, src)
	case KindVideo:
		return r.Video(ctx, src)
	default:
		return nil, ErrUnsupported
	}
}

// Image 解码图片并生成缩略图.
func (r *Renderer) Image(ctx context.Context, src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooLarge)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return r.encode(Thumbnail(img, r.opts.MaxDimension))
}

// Video 将视频落盘后抽取一帧生成缩略图.
// 偏移处没有帧时(视频短于偏移)退回到第 0 帧.
func (r *Renderer) Video(ctx context.Context, src io.Reader) ([]byte, error) {
	if r.frames == nil {
		return nil, fmt.Errorf("video preview: %w", ErrNoFrame)
	}

	tmp, err := os.CreateTemp(r.opts.TempDir, "fv-video-*")
	if err != nil {
		return nil, fmt.Errorf("spool video: %w", err)
	}

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return nil, fmt.Errorf("spool video: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spool video: %w", err)
	}

	frame, err := r.frames.ExtractFrame(ctx, tmp.Name(), r.opts.FrameOffset, r.opts.MaxDimension)
	if errors.Is(err, ErrNoFrame) && r.opts.FrameOffset > 0 {
		frame, err = r.frames.ExtractFrame(ctx, tmp.Name(), 0, r.opts.MaxDimension)
	}

	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	return r.encode(Thumbnail(img, r.opts.MaxDimension))
}

func (r *Renderer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// Fit 计算等比缩放到 maxDim 以内的尺寸, 不放大.
func Fit(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}

	if w >= h {
		nh := h * maxDim / w
		return maxDim, max(nh, 1)
	}

	nw := w * maxDim / h

	return max(nw, 1), maxDim
}

// Thumbnail 将 img 铺到白色不透明画布上并等比缩放到 maxDim 以内.
func Thumbnail(img image.Image, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)

	return dst
}
