package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"time"
)

// ErrNotFound 表示对象不存在
var ErrNotFound = errors.New("blob: 对象不存在")

// UploadResult 上传结果
type UploadResult struct {
	URL      string // 可访问的完整 URL
	Pathname string // 存储内的相对路径
	Size     int64  // 字节数
}

// Object 列举返回的对象元信息
type Object struct {
	Pathname   string
	Size       int64
	UploadedAt time.Time
	URL        string
}

// Store 对象存储接口，fs 与 s3 两种实现
type Store interface {
	// Upload 按 prefix 生成唯一路径后写入，返回最终路径与 URL
	Upload(ctx context.Context, prefix, filename string, data []byte, contentType string) (*UploadResult, error)
	// UploadText 写入指定的确切路径（覆盖同名对象）
	UploadText(ctx context.Context, pathname string, data []byte, contentType string) (*UploadResult, error)
	// Read 读取对象内容，不存在时返回 ErrNotFound
	Read(ctx context.Context, pathname string) ([]byte, error)
	// Delete 删除对象，对不存在的对象幂等（不报错）
	Delete(ctx context.Context, pathname string) error
	// Exists 判断对象是否存在
	Exists(ctx context.Context, pathname string) (bool, error)
	// List 列举指定前缀下的所有对象
	List(ctx context.Context, prefix string) ([]Object, error)
}

// uniquePathname 生成形如 prefix/<毫秒时间戳>-<随机串><扩展名> 的路径，
// 避免并发上传同名文件互相覆盖
func uniquePathname(prefix, filename string) string {
	ext := path.Ext(filename)
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s/%d-%s%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(buf), ext)
}

// TotalSize 汇总对象大小，用于存储用量统计
func TotalSize(objects []Object) int64 {
	var total int64
	for _, o := range objects {
		total += o.Size
	}
	return total
}
