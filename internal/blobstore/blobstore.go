// Package blobstore 管理上傳檔案的實體內容。
//
// 每個房間的檔案存放在 <root>/<roomID>/ 之下。寫入採兩階段：
// 先寫入暫存檔 (Stage)，再以 rename 覆蓋最終位置 (Commit)，
// 讓呼叫端可以在資料庫紀錄寫入失敗時丟棄暫存內容。
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const stageDir = ".staging"

var ErrNotFound = errors.New("blob not found")

// Store 以 afero 檔案系統為底層的 blob 存放區
type Store struct {
	fs   afero.Fs
	root string
}

// Staged 代表已寫入暫存區、尚未提交的 blob
type Staged struct {
	tmp  string
	key  string
	Size int64
}

// Key 回傳提交後的 blob 鍵值
func (s *Staged) Key() string {
	return s.key
}

// New 在指定的檔案系統上建立 Store
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// NewOS 建立使用本機磁碟的 Store
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// Key 組合房間內檔案的 blob 鍵值
func Key(roomID uint, filename string) string {
	return path.Join(strconv.FormatUint(uint64(roomID), 10), filename)
}

func (s *Store) path(key string) string {
	return path.Join(s.root, key)
}

// Stage 將內容寫入暫存檔
func (s *Store) Stage(key string, r io.Reader) (*Staged, error) {
	dir := path.Join(s.root, stageDir)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	tmp := path.Join(dir, uuid.NewString())
	f, err := s.fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create staged blob: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("write staged blob: %w", err)
	}

	return &Staged{tmp: tmp, key: key, Size: n}, nil
}

// Commit 將暫存檔移至最終位置，已存在的同名檔案會被覆蓋
func (s *Store) Commit(st *Staged) error {
	final := s.path(st.key)
	if err := s.fs.MkdirAll(path.Dir(final), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := s.fs.Rename(st.tmp, final); err != nil {
		return fmt.Errorf("commit blob %s: %w", st.key, err)
	}
	return nil
}

// Discard 刪除暫存檔
func (s *Store) Discard(st *Staged) error {
	if err := s.fs.Remove(st.tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard staged blob: %w", err)
	}
	return nil
}

// Open 開啟已提交的 blob
func (s *Store) Open(key string) (afero.File, error) {
	f, err := s.fs.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}
	return f, nil
}

// Exists 回報 blob 是否存在
func (s *Store) Exists(key string) (bool, error) {
	return afero.Exists(s.fs, s.path(key))
}

// RemoveRoom 刪除整個房間的檔案目錄，目錄不存在時視為成功
func (s *Store) RemoveRoom(roomID uint) error {
	dir := s.path(strconv.FormatUint(uint64(roomID), 10))
	if err := s.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove room %d blobs: %w", roomID, err)
	}
	return nil
}

// PurgeRoomBlobs 同步刪除房間檔案，未設定背景任務時使用
func (s *Store) PurgeRoomBlobs(_ context.Context, roomID uint) error {
	return s.RemoveRoom(roomID)
}
