// Package storage 定义存储层领域错误
//
// 这些错误隔离业务层与底层存储引擎的错误类型，
// 各驱动实现负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows，使回退逻辑可以区分"未找到"与其他失败
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（邮箱重复注册）
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrStorageFailure 后端存储写失败
	// 读失败不会携带此错误——读路径静默降级到本地回退存储
	ErrStorageFailure = errors.New("storage failure")
)
