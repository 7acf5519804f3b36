package di

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// normalizeType 统一字面量类型别名。
func normalizeType(typ string) string {
	switch strings.ToLower(typ) {
	case "", TypeString:
		return TypeString
	case TypeInt, "integer":
		return TypeInt
	case TypeFloat, "double":
		return TypeFloat
	case TypeBool, "boolean":
		return TypeBool
	case TypeArray:
		return TypeArray
	case TypeNull:
		return TypeNull
	}
	return typ
}

// coerce 把原始字面量严格转换为声明类型。
//
//	string -> string
//	int    -> int
//	float  -> float64
//	bool   -> bool
//	array  -> 原样返回
//	null   -> nil
func coerce(typ string, raw any) (any, error) {
	switch normalizeType(typ) {
	case TypeString:
		return coerceString(raw)
	case TypeInt:
		return coerceInt(raw)
	case TypeFloat:
		return coerceFloat(raw)
	case TypeBool:
		return coerceBool(raw)
	case TypeArray:
		return raw, nil
	case TypeNull:
		return nil, nil
	}
	return nil, ErrUnknownLiteralType
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}

	switch reflect.ValueOf(raw).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(raw), nil
	}
	return nil, fmt.Errorf("structured value is not a string")
}

func coerceInt(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		return n, nil
	}

	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt {
			return nil, strconv.ErrRange
		}
		return int(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f > math.MaxInt || f < math.MinInt {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	}
	return nil, fmt.Errorf("%T is not an integer", raw)
}

func coerceFloat(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return strconv.ParseFloat(s, 64)
	}

	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}
	return nil, fmt.Errorf("%T is not a number", raw)
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return nil, fmt.Errorf("%T is not a boolean", raw)
}
