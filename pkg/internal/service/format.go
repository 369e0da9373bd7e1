package service

import (
	"fmt"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// FileURLPattern 文件下载地址，重定向到预签名链接.
const FileURLPattern = "/api/v1/files/%s/download"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize 人类可读的文件大小，保留两位小数，例如 "1.50 KB".
func FormatSize(n int64) string {
	size := float64(n)

	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}

		size /= 1024
	}

	return fmt.Sprintf("%.2f PB", size)
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}

	return hash[:shortHashLen] + "..."
}

// toView 文件的对外视图，refs 为内容当前的引用数.
func (s *FileService) toView(f model.File, refs int64) types.FileView {
	view := types.FileView{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		FileType:         f.FileType,
		Size:             f.Size,
		FormattedSize:    FormatSize(f.Size),
		UploadedAt:       f.UploadedAt,
		FileURL:          fmt.Sprintf(FileURLPattern, f.ID),
		IsDuplicate:      refs > 1,
	}

	if view.IsDuplicate {
		view.StorageSaved = f.Size
	}

	return view
}
