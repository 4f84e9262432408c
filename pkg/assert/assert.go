package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotCircular panics when the calling function already appears earlier in the
// stack, which happens when two Default* singleton constructors depend on each
// other. Catching it here turns a silent sync.Once deadlock into a loud panic.
func NotCircular() {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	if n == 0 {
		return
	}
	frames := runtime.CallersFrames(pcs[:n])
	first, _ := frames.Next()
	for {
		f, more := frames.Next()
		if f.Function != "" && f.Function == first.Function {
			panic(fmt.Sprintf("circular singleton initialization detected in %s", first.Function))
		}
		if !more {
			return
		}
	}
}

// NotNil panics when v is nil, including typed nil pointers and interfaces.
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: value is nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			panic(fmt.Sprintf("assert: value of type %T is nil", v))
		}
	}
}
