package util

import "errors"

var (
	ErrGoalNotFound       = errors.New("goal not found")
	ErrEventNotFound      = errors.New("academic event not found")
	ErrCommitmentNotFound = errors.New("commitment not found")
	ErrProfileMissing     = errors.New("profile not found")
	// ErrStateConflict 并发修改目标状态时乐观锁或唯一索引冲突，客户端可重试
	ErrStateConflict = errors.New("goal state changed concurrently, retry")
)
