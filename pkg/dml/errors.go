package dml

import "fmt"

// DML 执行错误

// ErrColumnNotFound 引用了表中不存在的列
type ErrColumnNotFound struct {
	ColumnName string
	TableName  string
}

func (e *ErrColumnNotFound) Error() string {
	return fmt.Sprintf("column %s not found in table %s", e.ColumnName, e.TableName)
}

// ErrColumnCountMismatch INSERT 的列数与值数不一致
type ErrColumnCountMismatch struct {
	TableName    string
	ColumnCount  int
	ValueCount   int
}

func (e *ErrColumnCountMismatch) Error() string {
	return fmt.Sprintf("column count mismatch for table %s: %d columns, %d values", e.TableName, e.ColumnCount, e.ValueCount)
}

// ErrDuplicateColumnName 同一语句中重复赋值同一列
type ErrDuplicateColumnName struct {
	ColumnName string
}

func (e *ErrDuplicateColumnName) Error() string {
	return fmt.Sprintf("column %s assigned more than once in the same statement", e.ColumnName)
}

// ErrGeneratedColumnAssigned 显式为 GENERATED ALWAYS 列赋值
type ErrGeneratedColumnAssigned struct {
	ColumnName string
	TableName  string
}

func (e *ErrGeneratedColumnAssigned) Error() string {
	return fmt.Sprintf("cannot assign to generated column %s in table %s", e.ColumnName, e.TableName)
}

// ErrDuplicateKey 唯一约束冲突，形如 MySQL 的 "Duplicate entry"
type ErrDuplicateKey struct {
	IndexName           string
	ConflictingColumns  []string
	Value               interface{}
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("Duplicate entry '%v' for key '%s'", e.Value, e.IndexName)
}

// ErrNullInArrayTarget 数组元素赋值的目标数组本身为 NULL
type ErrNullInArrayTarget struct {
	ColumnName string
}

func (e *ErrNullInArrayTarget) Error() string {
	return fmt.Sprintf("cannot assign to element of array column %s: array is NULL", e.ColumnName)
}

// ErrArrayElement 数组下标越界或类型不符
type ErrArrayElement struct {
	ColumnName string
	Index      int
	Reason     string
}

func (e *ErrArrayElement) Error() string {
	return fmt.Sprintf("array element assignment failed for column %s at index %d: %s", e.ColumnName, e.Index, e.Reason)
}

// ErrDataConversion 值无法转换为目标列的类型
type ErrDataConversion struct {
	ColumnName string
	Value      interface{}
	TargetType string
}

func (e *ErrDataConversion) Error() string {
	return fmt.Sprintf("cannot convert value %v to type %s for column %s", e.Value, e.TargetType, e.ColumnName)
}

// ErrInvalidValue 赋值违反了列的约束（NOT NULL、CHECK 等）
type ErrInvalidValue struct {
	ColumnName string
	Reason     string
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for column %s: %s", e.ColumnName, e.Reason)
}

// ErrLockTimeout 行锁获取超时
type ErrLockTimeout struct {
	TableName string
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("lock wait timeout exceeded for table %s", e.TableName)
}

// ErrConcurrentUpdate FilteredScan 重新校验时发现行已被并发修改
type ErrConcurrentUpdate struct {
	TableName string
}

func (e *ErrConcurrentUpdate) Error() string {
	return fmt.Sprintf("row in table %s was concurrently modified", e.TableName)
}

// 辅助函数

func NewErrColumnNotFound(column, table string) *ErrColumnNotFound {
	return &ErrColumnNotFound{ColumnName: column, TableName: table}
}

func NewErrColumnCountMismatch(table string, columns, values int) *ErrColumnCountMismatch {
	return &ErrColumnCountMismatch{TableName: table, ColumnCount: columns, ValueCount: values}
}

func NewErrDuplicateColumnName(column string) *ErrDuplicateColumnName {
	return &ErrDuplicateColumnName{ColumnName: column}
}

func NewErrGeneratedColumnAssigned(column, table string) *ErrGeneratedColumnAssigned {
	return &ErrGeneratedColumnAssigned{ColumnName: column, TableName: table}
}

func NewErrDuplicateKey(indexName string, columns []string, value interface{}) *ErrDuplicateKey {
	return &ErrDuplicateKey{IndexName: indexName, ConflictingColumns: columns, Value: value}
}

func NewErrDataConversion(column string, value interface{}, targetType string) *ErrDataConversion {
	return &ErrDataConversion{ColumnName: column, Value: value, TargetType: targetType}
}

func NewErrInvalidValue(column, reason string) *ErrInvalidValue {
	return &ErrInvalidValue{ColumnName: column, Reason: reason}
}
