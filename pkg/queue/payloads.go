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
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ContentRef 标识一份去重后的内容及其对象.
type ContentRef struct {
	ContentID   string `json:"content_id"`
	ContentHash string `json:"content_hash"`
	Bucket      string `json:"bucket,omitempty"`
	ObjectKey   string `json:"object_key"`
	Size        int64  `json:"size"`
}

// FileUploadedPayload 新文件记录已创建.
type FileUploadedPayload struct {
	FileID           string     `json:"file_id"`
	OriginalFilename string     `json:"original_filename"`
	FileType         string     `json:"file_type"`
	Content          ContentRef `json:"content"`
	WasDeduplicated  bool       `json:"was_deduplicated"`
	ReferenceCount   int64      `json:"reference_count"`
}

// FileDeletedPayload 文件记录已删除. ContentRemoved 表示内容引用归零并已删除.
type FileDeletedPayload struct {
	FileID           string     `json:"file_id"`
	OriginalFilename string     `json:"original_filename"`
	Content          ContentRef `json:"content"`
	ContentRemoved   bool       `json:"content_removed"`
}

// ContentOrphanedPayload 对象删除失败，需要重试.
type ContentOrphanedPayload struct {
	Content ContentRef `json:"content"`
	Error   string     `json:"error"`
}
