package svc

import "errors"

// ErrUnknownBackend 错误：未知的账本存储类型
var ErrUnknownBackend = errors.New("unknown storage backend")

// ErrStorageInitFailed 错误：存储初始化失败
var ErrStorageInitFailed = errors.New("storage initialization failed")
