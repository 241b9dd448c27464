package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/apperrors"
)

// maxTxRetries 事务死锁/序列化冲突的最大重试次数
const maxTxRetries = 3

// notDeleted 过滤软删除行，所有读路径都必须套这个 scope
func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

// isRetryable 判断是否为可重试的事务错误
// 40001 = serialization_failure, 40P01 = deadlock_detected
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// runInTx 在单个事务中执行 fn，死锁时最多重试 maxTxRetries 次
func runInTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return err
}

// translateError 把存储层错误映射为业务错误类别
// 已带类别的业务错误原样透传，唯一约束/外键冲突 → conflict，未命中 → not_found，其余 → internal
func translateError(err error, notFoundMsg string) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		// 事务闭包里抛出的业务错误不能被降级成 internal
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.New(apperrors.KindNotFound, notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Wrap(apperrors.KindConflict, "constraint violation", err)
	default:
		return apperrors.Wrap(apperrors.KindInternal, "storage failure", err)
	}
}
