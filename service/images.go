package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore 附件图片存储：把临时位置的图片复制到应用图片目录
type ImageStore struct {
	dir string
}

// NewImageStore 创建图片存储，目录不存在时在首次保存时创建
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Persist 复制图片到图片目录，返回新的永久路径；已在图片目录中的文件原样返回
func (s *ImageStore) Persist(sourceRef string) (string, error) {
	if sourceRef == "" {
		return "", errors.New("图片路径为空")
	}
	if s.owns(sourceRef) {
		return sourceRef, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("创建图片目录失败: %w", err)
	}

	src, err := os.Open(sourceRef)
	if err != nil {
		return "", fmt.Errorf("打开图片失败: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(sourceRef))
	if ext == "" {
		ext = ".jpg"
	}
	dest := filepath.Join(s.dir, "img_"+uuid.NewString()+ext)
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("创建图片文件失败: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("复制图片失败: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("写入图片失败: %w", err)
	}
	return dest, nil
}

// Delete 删除图片目录内的图片，文件不存在或不在图片目录内时返回 false
func (s *ImageStore) Delete(ref string) (bool, error) {
	if ref == "" || !s.owns(ref) {
		return false, nil
	}
	err := os.Remove(ref)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("删除图片失败: %w", err)
	}
	return true, nil
}

// owns 路径是否位于图片目录内（不删除用户相册等外部文件）
func (s *ImageStore) owns(ref string) bool {
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return false
	}
	path, err := filepath.Abs(ref)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}
