// Package diagnose judges whether a task callable could be shipped across
// process boundaries, and when it could not, names the captured value that
// breaks serialization.
//
// Go closures cannot be introspected reflectively, so a task declares its
// capture set explicitly through Inspectable; what ships over the wire is
// the registered trainable name plus these captured values. The dry run
// gob-encodes the capture set the way a transport layer would. Nothing
// here fixes the task or performs real transport: the execution layer does
// its own mandatory serialization and fails on its own if this pre-flight
// check was skipped.
//
// Diagnosis is read-only: inspected values are never mutated, and the
// package holds no state between calls, so Diagnose is safe to invoke from
// any goroutine.
package diagnose

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
)

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// Capture is one named value a task closes over.
type Capture struct {
	Name  string
	Value any
}

// Var builds a Capture.
func Var(name string, value any) Capture {
	return Capture{Name: name, Value: value}
}

// Inspectable exposes the capture set a task would ship with.
type Inspectable interface {
	CapturedReferences() []Capture
}

// CaptureSet is a ready-made Inspectable for callers that assemble the
// capture list by hand.
type CaptureSet []Capture

func (s CaptureSet) CapturedReferences() []Capture { return s }

// Captures builds a CaptureSet.
func Captures(caps ...Capture) CaptureSet {
	return CaptureSet(caps)
}

// Report identifies the captured value that prevents a task from being
// shipped. It is an informative result, not an error.
type Report struct {
	// Name of the offending captured variable; empty when the failure
	// could not be isolated.
	Name string
	// Path describes how the offending value is reachable from the
	// capture set, e.g. `captured variable "cfg".Handle`.
	Path string
	// TypeName is the Go type of the offending value.
	TypeName string
	// Cause is the underlying encoder error.
	Cause error
	// Isolated is false when no single reference reproduces the failure
	// in isolation (cyclic or depth-exceeding structures).
	Isolated bool
}

func (r *Report) String() string {
	if !r.Isolated {
		return fmt.Sprintf("task cannot be serialized and no single captured reference reproduces the failure in isolation: %v", r.Cause)
	}
	return fmt.Sprintf(
		"%s (%s) cannot be serialized: %v; construct this value inside the task body instead of capturing it",
		r.Path, r.TypeName, r.Cause,
	)
}

// maxDepth bounds how far the isolation walk descends into a failing
// capture when refining the reported path.
const maxDepth = 4

// probeDepth bounds the structural pre-scan; beyond it a value is treated
// as structurally unserializable rather than walked further.
const probeDepth = 32

var errStructural = errors.New("cyclic or depth-exceeding structure")

// Diagnose dry-runs serialization of the task's capture set. A nil return
// means every captured value would ship; otherwise the report names the
// first captured reference (in declaration order) that fails, refined to
// the deepest reachable component that reproduces the failure.
func Diagnose(task Inspectable) *Report {
	if task == nil {
		return nil
	}
	for _, ref := range task.CapturedReferences() {
		err := probe(ref.Value)
		if err == nil {
			continue
		}
		if errors.Is(err, errStructural) {
			return &Report{Cause: err, Isolated: false}
		}
		path := fmt.Sprintf("captured variable %q", ref.Name)
		value, cause := ref.Value, err
		for depth := 0; depth < maxDepth; depth++ {
			label, child, childErr := firstFailingChild(value)
			if childErr == nil {
				break
			}
			path += label
			value, cause = child, childErr
		}
		return &Report{
			Name:     ref.Name,
			Path:     path,
			TypeName: fmt.Sprintf("%T", value),
			Cause:    cause,
			Isolated: true,
		}
	}
	return nil
}

// probe attempts to serialize a single value in isolation.
func probe(value any) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	if err := scanStructure(rv, make(map[uintptr]struct{}), 0); err != nil {
		return err
	}
	return gob.NewEncoder(io.Discard).Encode(value)
}

// scanStructure rejects cyclic and over-deep values before the encoder
// sees them; gob has no cycle detection of its own.
func scanStructure(rv reflect.Value, seen map[uintptr]struct{}, depth int) error {
	if depth > probeDepth {
		return errStructural
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if _, ok := seen[ptr]; ok {
			return errStructural
		}
		seen[ptr] = struct{}{}
		defer delete(seen, ptr)
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return scanStructure(rv.Elem(), seen, depth+1)
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return scanStructure(rv.Elem(), seen, depth+1)
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if err := scanStructure(iter.Value(), seen, depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := scanStructure(rv.Index(i), seen, depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if err := scanStructure(rv.Field(i), seen, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

type child struct {
	label string
	value any
}

// firstFailingChild finds the first component of value that fails to
// serialize in isolation. Pointers are transparent: the walk descends into
// the pointee without adding a path segment.
func firstFailingChild(value any) (string, any, error) {
	for _, c := range childrenOf(value) {
		if err := probe(c.value); err != nil && !errors.Is(err, errStructural) {
			return c.label, c.value, err
		}
	}
	return "", nil, nil
}

func childrenOf(value any) []child {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		out := make([]child, 0, rv.NumField())
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			if !field.CanInterface() {
				continue
			}
			out = append(out, child{
				label: "." + t.Field(i).Name,
				value: field.Interface(),
			})
		}
		return out
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]child, 0, len(keys))
		for _, key := range keys {
			out = append(out, child{
				label: fmt.Sprintf("[%v]", key.Interface()),
				value: rv.MapIndex(key).Interface(),
			})
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]child, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, child{
				label: fmt.Sprintf("[%d]", i),
				value: rv.Index(i).Interface(),
			})
		}
		return out
	default:
		return nil
	}
}
