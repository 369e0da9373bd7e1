package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishFileUploaded 发布 fv.file.uploaded 事件.
func PublishFileUploaded(pub message.Publisher, payload FileUploadedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileUploaded, payload, opts...)
}

// PublishFileDeleted 发布 fv.file.deleted 事件.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicFileDeleted, payload, opts...)
}

// PublishContentOrphaned 发布 fv.content.orphaned 事件.
// 消息 ID 取内容哈希，开启 JetStream 去重时同一内容重复发布只保留一条.
func PublishContentOrphaned(pub message.Publisher, payload ContentOrphanedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicContentOrphaned, payload, opts...)
	if err != nil {
		return err
	}

	if payload.Content.ContentHash != "" {
		msg.UUID = payload.Content.ContentHash
	}

	return pub.Publish(TopicContentOrphaned, msg)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// ParseFileUploaded 解析 fv.file.uploaded 消息.
func ParseFileUploaded(msg *message.Message) (Message[FileUploadedPayload], error) {
	return ParseWatermillMessage[FileUploadedPayload](msg)
}

// ParseFileDeleted 解析 fv.file.deleted 消息.
func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

// ParseContentOrphaned 解析 fv.content.orphaned 消息.
func ParseContentOrphaned(msg *message.Message) (Message[ContentOrphanedPayload], error) {
	return ParseWatermillMessage[ContentOrphanedPayload](msg)
}
