package predict

import (
	"errors"
	"strings"
)

// Kind 预测请求被拒绝的原因，对HTTP客户端的返回方式相同
type Kind int

const (
	KindNoInput Kind = iota + 1
	KindMalformedJSON
	KindNotList
	KindMissingColumns
	KindNoValidRecords
	KindTimestampRange
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindNoInput:
		return "no_input"
	case KindMalformedJSON:
		return "malformed_json"
	case KindNotList:
		return "not_list"
	case KindMissingColumns:
		return "missing_columns"
	case KindNoValidRecords:
		return "no_valid_records"
	case KindTimestampRange:
		return "timestamp_range"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

const (
	MsgNoInput        = "no input data received"
	MsgNotList        = "input must be a list of JSON objects"
	MsgNoValidRecords = "all records had invalid timestamp"
)

type RequestError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *RequestError) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *RequestError {
	return &RequestError{Kind: kind, Msg: msg, Err: err}
}

func missingColumnsError(columns []string) *RequestError {
	return newError(KindMissingColumns, "missing expected columns: "+strings.Join(columns, ", "), nil)
}

// KindOf 返回请求错误的类别，其他错误返回0
func KindOf(err error) Kind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return 0
}
