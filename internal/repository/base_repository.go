package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"projectmate/internal/storage"
)

// baseRepository 提供各 repository 共用的連線與錯誤轉換
type baseRepository struct {
	db *storage.Database
}

func (r *baseRepository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// translate 將 gorm / driver 錯誤轉換為 repository 層定義的錯誤
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateEntry)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%s: %w", op, ErrDuplicateEntry)
	}
	return fmt.Errorf("%s: %w", op, err)
}
