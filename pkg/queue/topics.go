// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：fv.<域>.<动作>，尽量稳定且向后兼容.
// 域：file（文件记录）、content（去重后的内容对象）
const (
	TopicFileUploaded    = "fv.file.uploaded"    // 文件上传完成（包括命中去重，只新增记录未写对象）
	TopicFileDeleted     = "fv.file.deleted"     // 文件记录被删除，内容可能仍被其它记录引用
	TopicContentOrphaned = "fv.content.orphaned" // 内容引用归零且对象删除失败，等待消费者重试
)

// Topics 全部主题，用于 mq ls 等诊断输出.
var Topics = []string{
	TopicFileUploaded,
	TopicFileDeleted,
	TopicContentOrphaned,
}
