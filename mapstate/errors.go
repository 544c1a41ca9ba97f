package mapstate

import (
	"errors"
	"fmt"
)

// 文本坐标输入的错误类型
var (
	ErrInvalidInput = errors.New("invalid coordinates")
	ErrOutOfRange   = errors.New("coordinate out of range")
)

// InputError 描述哪一个字段输入有误
type InputError struct {
	Field string // "lat" / "lng", 两者都无法解析时为空
	Err   error  // ErrInvalidInput 或 ErrOutOfRange
}

func (e *InputError) Error() string {
	switch {
	case errors.Is(e.Err, ErrOutOfRange) && e.Field == "lat":
		return "latitude must be between -90 and 90"
	case errors.Is(e.Err, ErrOutOfRange) && e.Field == "lng":
		return "longitude must be between -180 and 180"
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *InputError) Unwrap() error { return e.Err }
