package predict

import (
	"fmt"
	"math"

	"sensorpredict/ml"
)

const (
	ColumnTimestamp   = "timestamp"
	ColumnAnalogValue = "analog_value"
)

// RequiredColumns 每个批次必须包含的列
var RequiredColumns = []string{ColumnTimestamp, ColumnAnalogValue}

// Clean 校验必需列并规范化时间戳列。无法解析的时间戳与表中的无穷值置为缺失，
// 丢弃没有时间戳的行，其余时间戳截断为 int64。原表会被就地修改
func Clean(t *ml.Table) (*ml.Table, error) {
	var missing []string
	for _, column := range RequiredColumns {
		if !t.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumnsError(missing)
	}

	for row := 0; row < t.Len(); row++ {
		t.Set(row, ColumnTimestamp, t.Get(row, ColumnTimestamp).ToNumeric())
	}
	t.Apply(func(v ml.Value) ml.Value {
		if v.IsInf() {
			return ml.Missing()
		}
		return v
	})

	// 保留的行在原始请求中的位置，错误信息按原始位置报告
	var origin []int
	cleaned := t.Filter(func(row int) bool {
		if t.Get(row, ColumnTimestamp).IsMissing() {
			return false
		}
		origin = append(origin, row)
		return true
	})
	if cleaned.Len() == 0 {
		return nil, newError(KindNoValidRecords, MsgNoValidRecords, nil)
	}

	for row := 0; row < cleaned.Len(); row++ {
		ts, err := toInt64(cleaned.Get(row, ColumnTimestamp))
		if err != nil {
			return nil, newError(KindTimestampRange, fmt.Sprintf("record %d", origin[row]), err)
		}
		cleaned.Set(row, ColumnTimestamp, ml.Int(ts))
	}
	return cleaned, nil
}

func toInt64(v ml.Value) (int64, error) {
	if i, ok := v.Int64(); ok {
		return i, nil
	}
	f, ok := v.Float64()
	if !ok {
		return 0, fmt.Errorf("timestamp %q is not numeric", v.Text())
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("timestamp %s out of int64 range", v.Text())
	}
	return int64(f), nil
}
