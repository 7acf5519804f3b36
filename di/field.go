package di

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"unsafe"
)

// FieldWriter 把值写入目标对象的命名字段，忽略可见性。
type FieldWriter interface {
	SetField(target any, field string, value any) error
}

// FieldWriterFunc 函数适配器。
type FieldWriterFunc func(target any, field string, value any) error

func (f FieldWriterFunc) SetField(target any, field string, value any) error {
	return f(target, field, value)
}

// ReflectFieldWriter 基于反射的默认实现。
//
// 字段匹配顺序：`di:"name"` 标签、字段名、忽略大小写的字段名。
// 未导出字段同样可写。目标为 map[string]T 时写入对应的键。
type ReflectFieldWriter struct{}

var fieldCache sync.Map // reflect.Type -> *fieldIndex

type fieldIndex struct {
	byTag  map[string]int
	byName map[string]int
	names  []string
}

func (w ReflectFieldWriter) SetField(target any, field string, value any) error {
	if target == nil {
		return &FieldError{Field: field, Err: ErrNilTarget}
	}

	rv := reflect.ValueOf(target)
	fail := func(err error) error {
		return &FieldError{Field: field, Target: rv.Type(), Err: err}
	}

	if rv.Kind() == reflect.Map {
		return setMapKey(rv, field, value, fail)
	}

	if rv.Kind() != reflect.Ptr {
		return fail(fmt.Errorf("target must be a pointer to a struct"))
	}
	if rv.IsNil() {
		return fail(ErrNilTarget)
	}
	elem := rv.Elem()
	if elem.Kind() == reflect.Map {
		if elem.IsNil() {
			return fail(ErrNilTarget)
		}
		return setMapKey(elem, field, value, fail)
	}
	if elem.Kind() != reflect.Struct {
		return fail(fmt.Errorf("target must be a pointer to a struct"))
	}

	i, ok := lookupField(elem.Type(), field)
	if !ok {
		return fail(ErrNoSuchField)
	}

	fv := elem.Field(i)
	if !fv.CanSet() {
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}

	v, err := adapt(value, fv.Type())
	if err != nil {
		return fail(err)
	}
	fv.Set(v)
	return nil
}

func setMapKey(m reflect.Value, key string, value any, fail func(error) error) error {
	if m.Type().Key().Kind() != reflect.String {
		return fail(fmt.Errorf("map target must have string keys"))
	}
	if m.IsNil() {
		return fail(ErrNilTarget)
	}
	v, err := adapt(value, m.Type().Elem())
	if err != nil {
		return fail(err)
	}
	m.SetMapIndex(reflect.ValueOf(key).Convert(m.Type().Key()), v)
	return nil
}

func lookupField(t reflect.Type, name string) (int, bool) {
	idx := indexFields(t)
	if i, ok := idx.byTag[name]; ok {
		return i, true
	}
	if i, ok := idx.byName[name]; ok {
		return i, true
	}
	for _, n := range idx.names {
		if strings.EqualFold(n, name) {
			return idx.byName[n], true
		}
	}
	return 0, false
}

func indexFields(t reflect.Type) *fieldIndex {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(*fieldIndex)
	}

	idx := &fieldIndex{
		byTag:  make(map[string]int),
		byName: make(map[string]int, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == "_" {
			continue
		}
		if tag, ok := f.Tag.Lookup("di"); ok && tag != "" && tag != "-" {
			idx.byTag[tag] = i
		}
		idx.byName[f.Name] = i
		idx.names = append(idx.names, f.Name)
	}

	actual, _ := fieldCache.LoadOrStore(t, idx)
	return actual.(*fieldIndex)
}

// adapt 把解析出的值转换为目标类型：
// nil 为零值，可赋值的直接使用，数值按种类转换，切片与映射逐元素转换。
func adapt(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}

	switch {
	case isNumber(v.Kind()) && isNumber(t.Kind()):
		return convertNumber(v, t)

	case v.Kind() == reflect.String && t.Kind() == reflect.String:
		return v.Convert(t), nil

	case v.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return v.Convert(t), nil

	case t.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := adapt(v.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Index(i).Set(e)
		}
		return out, nil

	case t.Kind() == reflect.Map && v.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := adapt(iter.Key().Interface(), t.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			e, err := adapt(iter.Value().Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%v]: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, e)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %v", value, t)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	overflow := fmt.Errorf("%v overflows %v", v.Interface(), t)

	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case v.CanInt():
			n = v.Int()
		case v.CanUint():
			if v.Uint() > math.MaxInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(v.Uint())
		default:
			f := v.Float()
			if f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("%v is not an integer", f)
			}
			if f > math.MaxInt64 || f < math.MinInt64 {
				return reflect.Value{}, overflow
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, overflow
		}
		out.SetInt(n)
		return out, nil

	default: // unsigned
		var n uint64
		switch {
		case v.CanUint():
			n = v.Uint()
		case v.CanInt():
			if v.Int() < 0 {
				return reflect.Value{}, overflow
			}
			n = uint64(v.Int())
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < 0 {
				return reflect.Value{}, fmt.Errorf("%v is not an unsigned integer", f)
			}
			if f > math.MaxUint64 {
				return reflect.Value{}, overflow
			}
			n = uint64(f)
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, overflow
		}
		out.SetUint(n)
		return out, nil
	}
}
