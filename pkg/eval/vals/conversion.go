package vals

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Conversion between native Go values and values used in expressions.
//
// Numbers are float64 in expressions, since that is what JSON decoding
// produces. Go functions often want int; ScanToGo converts in that direction
// and FromGo in the other.

type wrongType struct {
	wantKind string
	gotKind  string
}

func (err wrongType) Error() string {
	return fmt.Sprintf("wrong type: need %s, got %s", err.wantKind, err.gotKind)
}

var (
	errMustBeNumber  = errors.New("must be number")
	errMustBeInteger = errors.New("must be integer")
)

// Scanner is implemented by types that can scan a value into itself.
type Scanner interface {
	ScanValue(any) error
}

// ScanToGo converts src to the type ptr points to and stores it there.
// Conversion happens for numeric destinations and for slices; for other
// destinations src must already be assignable.
func ScanToGo(src any, ptr any) error {
	switch ptr := ptr.(type) {
	case *int:
		i, err := toInt(src)
		if err == nil {
			*ptr = i
		}
		return err
	case *int64:
		i, err := toInt(src)
		if err == nil {
			*ptr = int64(i)
		}
		return err
	case *float64:
		f, err := toFloat(src)
		if err == nil {
			*ptr = f
		}
		return err
	case *any:
		*ptr = src
		return nil
	case Scanner:
		return ptr.ScanValue(src)
	}
	ptrValue := reflect.ValueOf(ptr)
	if ptrValue.Kind() != reflect.Pointer {
		return fmt.Errorf("internal bug: need pointer to scan to, got %T", ptr)
	}
	return scanReflect(src, ptrValue.Elem())
}

func scanReflect(src any, dst reflect.Value) error {
	dstType := dst.Type()
	if src == nil {
		switch dstType.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			dst.Set(reflect.Zero(dstType))
			return nil
		}
		return wrongType{kindOfType(dstType), "nil"}
	}
	srcType := reflect.TypeOf(src)
	if srcType.AssignableTo(dstType) {
		dst.Set(reflect.ValueOf(src))
		return nil
	}
	switch dstType.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		i, err := toInt(src)
		if err != nil {
			return err
		}
		dst.SetInt(int64(i))
		return nil
	case reflect.Float64, reflect.Float32:
		f, err := toFloat(src)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	case reflect.Slice:
		list, ok := src.([]any)
		if !ok {
			break
		}
		converted := reflect.MakeSlice(dstType, len(list), len(list))
		for i, elem := range list {
			if err := scanReflect(elem, converted.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(converted)
		return nil
	}
	return wrongType{kindOfType(dstType), Kind(src)}
}

func kindOfType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Float64, reflect.Float32:
		return "number"
	case reflect.Slice:
		return "list"
	case reflect.Map:
		return "map"
	case reflect.Func, reflect.Interface:
		return "fn"
	}
	return "!!" + t.String()
}

// FromGo converts a Go value to a value used in expressions. Integer and
// float32 values become float64; other values are returned unchanged.
func FromGo(a any) any {
	switch a := a.(type) {
	case int:
		return float64(a)
	case int64:
		return float64(a)
	case int32:
		return float64(a)
	case float32:
		return float64(a)
	case json.Number:
		if f, err := a.Float64(); err == nil {
			return f
		}
		return a.String()
	default:
		return a
	}
}

func toFloat(arg any) (float64, error) {
	switch arg := arg.(type) {
	case float64:
		return arg, nil
	case int:
		return float64(arg), nil
	case int64:
		return float64(arg), nil
	case json.Number:
		f, err := arg.Float64()
		if err != nil {
			return 0, errMustBeNumber
		}
		return f, nil
	default:
		return 0, errMustBeNumber
	}
}

func toInt(arg any) (int, error) {
	switch arg := arg.(type) {
	case int:
		return arg, nil
	case int64:
		return int(arg), nil
	}
	f, err := toFloat(arg)
	if err != nil {
		return 0, errMustBeInteger
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errMustBeInteger
	}
	return int(f), nil
}
