package pe

import (
	"errors"
	"fmt"
)

// Fatal parse errors. Anything past signature validation is recoverable.
var (
	ErrBadDOSSignature = errors.New("无效的DOS签名（期望 'MZ'）")
	ErrBadNTSignature  = errors.New("无效的NT签名（期望 'PE\\0\\0'）")
	ErrHeaderTooShort  = errors.New("缓冲区太小，无法容纳PE头")
)

// NotMappedError reports an RVA that falls outside every section.
// Recoverable: the record referencing the RVA is skipped.
type NotMappedError struct {
	RVA uint32
}

func (e *NotMappedError) Error() string {
	return fmt.Sprintf("RVA 0x%X 不在任何节区中", e.RVA)
}

// TruncatedDirectoryError reports a directory whose declared contents
// extend past the end of the buffer. Recoverable: partial results are
// returned for whatever could be read.
type TruncatedDirectoryError struct {
	Directory string
}

func (e *TruncatedDirectoryError) Error() string {
	return fmt.Sprintf("%s在缓冲区结束前被截断，返回部分结果", e.Directory)
}

// UnsupportedError reports an image variant the walkers do not handle
// (currently PE32+). Recoverable: no records are returned.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("不支持的PE格式: %s", e.Reason)
}

// MalformedRecordError reports a record that failed a bounds or sanity
// check. Recoverable: the single record is skipped.
type MalformedRecordError struct {
	Offset uint64
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("偏移 0x%X 处的记录无效: %s", e.Offset, e.Reason)
}
