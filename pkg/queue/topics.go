// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：fv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：preview(预览图)、file(文件生命周期)
// 状态：请求(requested)、完成(generated/purged)、失败(failed)

const (
	// 预览图领域.
	TopicPreviewRequested = "fv.preview.requested" // 文件入库后请求生成预览图
	TopicPreviewGenerated = "fv.preview.generated" // 预览图已生成并写回 preview_key
	TopicPreviewFailed    = "fv.preview.failed"    // 重试耗尽或无法生成

	// 文件生命周期领域.
	TopicFilePurged = "fv.file.purged" // 文件行与内容被永久删除
)

// PreviewTopics 预览相关主题集合.
var PreviewTopics = []string{
	TopicPreviewRequested, TopicPreviewGenerated, TopicPreviewFailed,
}
