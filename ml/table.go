package ml

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Table 按行存储的表，列保持首次出现的顺序。行中不存在的单元格为缺失
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

func NewTable(columns ...string) *Table {
	t := &Table{index: make(map[string]int)}
	for _, name := range columns {
		t.AddColumn(name)
	}
	return t
}

// AddColumn 列不存在时追加，返回列的位置
func (t *Table) AddColumn(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	idx := len(t.columns)
	t.columns = append(t.columns, name)
	t.index[name] = idx
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Missing())
	}
	return idx
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

func (t *Table) Len() int {
	return len(t.rows)
}

// AppendRow 追加一行，为新键创建列。keys 与 values 一一对应，保持记录的键顺序
func (t *Table) AppendRow(keys []string, values []Value) {
	row := make([]Value, len(t.columns), len(t.columns)+len(keys))
	for i, key := range keys {
		idx := t.AddColumn(key)
		if idx >= len(row) {
			row = append(row, make([]Value, idx+1-len(row))...)
		}
		row[idx] = values[i]
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Get(row int, column string) Value {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Missing()
	}
	return t.rows[row][idx]
}

func (t *Table) Set(row int, column string, v Value) {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return
	}
	t.rows[row][idx] = v
}

// Apply 就地改写每个单元格
func (t *Table) Apply(fn func(Value) Value) {
	for _, row := range t.rows {
		for i := range row {
			row[i] = fn(row[i])
		}
	}
}

// Filter 返回 keep 为 true 的行组成的新表，保持原顺序
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := NewTable(t.columns...)
	for i, row := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Fingerprint 对列名和单元格内容（含类型）做哈希，相同的表指纹相同
func (t *Table) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(len(t.columns)))
	h.Write(buf[:])
	for _, name := range t.columns {
		writeString(name)
	}
	for _, row := range t.rows {
		for _, cell := range row {
			h.Write([]byte{byte(cell.kind)})
			switch cell.kind {
			case KindInt:
				binary.LittleEndian.PutUint64(buf[:], uint64(cell.i))
				h.Write(buf[:])
			case KindFloat:
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(cell.f))
				h.Write(buf[:])
			case KindBool:
				if cell.b {
					h.Write([]byte{1})
				} else {
					h.Write([]byte{0})
				}
			case KindString, KindComposite:
				writeString(cell.s)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
