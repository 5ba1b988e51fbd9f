package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// トランザクションがコミットできなかった（直列化失敗・デッドロック・楽観ロック失敗）
	ErrConflict = errors.New("transaction conflict")
	// 一意制約違反
	ErrDuplicate = errors.New("duplicate key")
)
