// Package model 定义元数据表：去重后的文件内容与引用内容的文件记录.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileContent 去重后的文件内容，一个内容对应对象存储中的一个 blob.
// ReferenceCount 为引用它的 File 数量，归零后等待删除 blob.
type FileContent struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"     json:"id"`
	ContentHash    string    `gorm:"size:64;uniqueIndex;not null"    json:"content_hash"` // sha256 hex
	ObjectKey      string    `gorm:"size:1024;not null"              json:"object_key"`
	Size           int64     `gorm:"not null"                        json:"size"`
	ReferenceCount int64     `gorm:"not null;default:1;index"        json:"reference_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (FileContent) TableName() string { return "file_contents" }

// BeforeCreate 生成主键.
func (c *FileContent) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	return nil
}

// File 用户可见的文件记录.
type File struct {
	ID               string      `gorm:"type:varchar(36);primaryKey"                                 json:"id"`
	ContentID        string      `gorm:"type:varchar(36);not null;index"                             json:"content_id"`
	Content          FileContent `gorm:"foreignKey:ContentID;constraint:OnDelete:RESTRICT"           json:"-"`
	OriginalFilename string      `gorm:"size:255;not null;index"                                     json:"original_filename"`
	FileType         string      `gorm:"size:100;not null;index;index:idx_files_type_size,priority:1" json:"file_type"`
	Size             int64       `gorm:"not null;index;index:idx_files_type_size,priority:2"         json:"size"`
	UploadedAt       time.Time   `gorm:"not null;index"                                              json:"uploaded_at"`
}

func (File) TableName() string { return "files" }

// BeforeCreate 生成主键并填充上传时间（UTC）.
func (f *File) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}

	return nil
}

// AutoMigrate 创建或更新表结构.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&FileContent{}, &File{})
}
