package preview

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FrameExtractor 从视频文件中抽取一帧, 返回 JPEG 字节.
// 偏移处没有帧时返回 ErrNoFrame.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, path string, offset time.Duration, width int) ([]byte, error)
}

// FFmpeg 调用外部 ffmpeg 可执行文件抽帧.
type FFmpeg struct {
	Path string
}

// ExtractFrame 实现 FrameExtractor.
func (f FFmpeg) ExtractFrame(ctx context.Context, path string, offset time.Duration, width int) ([]byte, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, frameArgs(path, offset, width)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() == 0 {
		return nil, ErrNoFrame
	}

	return stdout.Bytes(), nil
}

// frameArgs 构造抽帧参数. 宽度只缩不放，窄于 width 的视频保持原宽.
func frameArgs(path string, offset time.Duration, width int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':-2", width),
		"-f", "image2",
		"-vcodec", "mjpeg",
		"pipe:1",
	}
}
