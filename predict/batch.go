package predict

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"sensorpredict/ml"
)

// DecodeBatch 把请求体解析为表。请求体必须是非空的 JSON 对象数组，
// 列为所有对象键的并集，按首次出现顺序排列
func DecodeBatch(body []byte) (*ml.Table, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, newError(KindNoInput, MsgNoInput, nil)
	}

	var doc any
	if err := decodeSingle(trimmed, &doc); err != nil {
		return nil, newError(KindMalformedJSON, "malformed JSON", err)
	}
	if isEmpty(doc) {
		return nil, newError(KindNoInput, MsgNoInput, nil)
	}
	if _, ok := doc.([]any); !ok {
		return nil, newError(KindNotList, MsgNotList, nil)
	}

	// 按原始元素再解码一次，保留键顺序
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, newError(KindMalformedJSON, "malformed JSON", err)
	}

	table := ml.NewTable()
	for _, element := range elements {
		keys, values, err := decodeObject(element)
		if err != nil {
			return nil, err
		}
		table.AppendRow(keys, values)
	}
	return table, nil
}

func decodeSingle(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

// isEmpty 判断不含数据的 JSON 值：null、false、0、""、[]、{}
func isEmpty(doc any) bool {
	switch x := doc.(type) {
	case nil:
		return true
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// decodeObject 按键顺序读取一个 JSON 对象，重复键取最后一个值
func decodeObject(raw json.RawMessage) ([]string, []ml.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, newError(KindMalformedJSON, "malformed JSON", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, newError(KindNotList, MsgNotList, nil)
	}

	var keys []string
	var values []ml.Value
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, newError(KindMalformedJSON, "malformed JSON", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, newError(KindMalformedJSON, "malformed JSON", errors.New("object key is not a string"))
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, newError(KindMalformedJSON, "malformed JSON", err)
		}
		if idx, dup := seen[key]; dup {
			values[idx] = ml.FromJSON(value)
			continue
		}
		seen[key] = len(keys)
		keys = append(keys, key)
		values = append(values, ml.FromJSON(value))
	}
	return keys, values, nil
}
