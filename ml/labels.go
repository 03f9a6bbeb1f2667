package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const UnknownLabel = "desconocido"

// Labels 分类器输出类别的名称
type Labels map[int]string

// DefaultLabels 传感器分类器训练时使用的光照类别
func DefaultLabels() Labels {
	return Labels{
		0: "luz solar intensa",
		1: "reflejos de sol y sombra",
		2: "oscuridad",
		3: "sombra",
	}
}

// Name 把预测值映射为类别名，非整数或未知值返回 UnknownLabel
func (l Labels) Name(prediction float64) string {
	if math.IsNaN(prediction) || math.IsInf(prediction, 0) || prediction != math.Trunc(prediction) {
		return UnknownLabel
	}
	if name, ok := l[int(prediction)]; ok {
		return name
	}
	return UnknownLabel
}

// UnmarshalJSON 接受 JSON 要求的字符串键对象
func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Labels, len(raw))
	for key, name := range raw {
		class, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("label key %q is not an integer", key)
		}
		out[class] = name
	}
	*l = out
	return nil
}
