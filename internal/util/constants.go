package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// 计划缓存 key 前缀
const RetroplanCachePrefix = "stride:retroplan:"
