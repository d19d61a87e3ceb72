package service

import (
	"errors"
)

var (
	// ErrCodeRequired 未输入股票代码
	ErrCodeRequired = errors.New("stock code required")
	// ErrNameNotFound 名称表和行情源都查不到名称
	ErrNameNotFound = errors.New("stock name not found")
	// ErrInvalidImport 导入文件格式或内容不合法
	ErrInvalidImport = errors.New("invalid import file")
)

// ValidationError 调用方输入错误，Msg 可直接展示给用户
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation 是否为调用方输入错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(msg string, err error) error {
	return &ValidationError{Msg: msg, Err: err}
}
