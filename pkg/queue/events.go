package queue

import "github.com/ThreeDotsLabs/watermill/message"

// NewPreviewRequested 构造 fv.preview.requested 消息.
func NewPreviewRequested(payload PreviewRequestedPayload, opts ...Option) (*message.Message, error) {
	return NewWatermillMessage(TopicPreviewRequested, payload, opts...)
}

// ParsePreviewRequested 解析 fv.preview.requested 消息.
func ParsePreviewRequested(msg *message.Message) (Message[PreviewRequestedPayload], error) {
	return ParseWatermillMessage[PreviewRequestedPayload](msg)
}

// NewPreviewGenerated 构造 fv.preview.generated 消息.
func NewPreviewGenerated(payload PreviewGeneratedPayload, opts ...Option) (*message.Message, error) {
	return NewWatermillMessage(TopicPreviewGenerated, payload, opts...)
}

// NewPreviewFailed 构造 fv.preview.failed 消息.
func NewPreviewFailed(payload PreviewFailedPayload, opts ...Option) (*message.Message, error) {
	return NewWatermillMessage(TopicPreviewFailed, payload, opts...)
}

// NewFilePurged 构造 fv.file.purged 消息.
func NewFilePurged(payload FilePurgedPayload, opts ...Option) (*message.Message, error) {
	return NewWatermillMessage(TopicFilePurged, payload, opts...)
}
