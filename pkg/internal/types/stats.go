package types

import "time"

// StatsSummary 存储与去重概况.
type StatsSummary struct {
	TotalFiles         int64  `json:"total_files"`
	UniqueFiles        int64  `json:"unique_files"`
	DeduplicationRatio string `json:"deduplication_ratio"` // 例如 "33.3%"，没有文件时为 "0%"
	TotalStorageUsed   int64  `json:"total_storage_used"`
	StorageSaved       int64  `json:"storage_saved"`
	StorageEfficiency  string `json:"storage_efficiency"`
}

// FileTypeStat 按文件类型聚合.
type FileTypeStat struct {
	FileType  string `json:"file_type"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// StatsResponse 统计结果.
type StatsResponse struct {
	Summary   StatsSummary   `json:"summary"`
	FileTypes []FileTypeStat `json:"file_types"`
}

// DuplicateFile 共享同一内容的文件.
type DuplicateFile struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// DuplicateGroup 一组共享内容的文件.
type DuplicateGroup struct {
	ContentHash    string          `json:"content_hash"`
	Size           int64           `json:"size"`
	ReferenceCount int64           `json:"reference_count"`
	StorageSaved   int64           `json:"storage_saved"`
	Files          []DuplicateFile `json:"files"`
}

// DuplicatesResponse 重复文件列表.
type DuplicatesResponse struct {
	TotalDuplicateGroups int              `json:"total_duplicate_groups"`
	Duplicates           []DuplicateGroup `json:"duplicates"`
}
