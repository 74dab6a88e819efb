package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 预览领域 --------------------------

// PreviewRequestedPayload 请求为文件生成预览图.
type PreviewRequestedPayload struct {
	FileID   string `json:"file_id"`
	Owner    string `json:"owner"`
	MimeType string `json:"mime_type"`
	// Attempt 由重新入队任务递增, 首次上传为 0.
	Attempt int `json:"attempt,omitempty"`
}

// PreviewGeneratedPayload 预览图生成成功.
type PreviewGeneratedPayload struct {
	FileID     string `json:"file_id"`
	PreviewKey string `json:"preview_key"`
}

// PreviewFailedPayload 预览图生成失败, Kind 取自错误分类.
type PreviewFailedPayload struct {
	FileID   string `json:"file_id"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}

// -------------------------- 文件生命周期领域 --------------------------

// FilePurgedPayload 文件被永久删除.
type FilePurgedPayload struct {
	FileID string `json:"file_id"`
	Owner  string `json:"owner"`
	// Source 触发来源: trash(用户永久删除) 或 sweep(保留期清理).
	Source string `json:"source"`
}
