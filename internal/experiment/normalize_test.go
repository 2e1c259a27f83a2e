package experiment

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tessera-ml/tessera-go/internal/domain"
)

type staticKinds map[string]domain.TrainableKind

func (k staticKinds) TrainableKind(name string) (domain.TrainableKind, error) {
	kind, ok := k[name]
	if !ok {
		return "", fmt.Errorf("trainable %q is not registered", name)
	}
	return kind, nil
}

var testKinds = staticKinds{
	"f1": domain.TrainableFunction,
	"c1": domain.TrainableClass,
}

func validSpec(name string) Spec {
	return Spec{
		Name:      name,
		Trainable: domain.TrainableByName("f1"),
		Config:    map[string]any{"script_min_iter_time_s": 0},
	}
}

func TestNormalizeNone(t *testing.T) {
	defs, err := NormalizeRaw(nil, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw(nil) err=%v", err)
	}
	if defs == nil || len(defs) != 0 {
		t.Fatalf("NormalizeRaw(nil)=%v, want empty non-nil slice", defs)
	}
}

func TestNormalizeSingle(t *testing.T) {
	defs, err := NormalizeRaw(validSpec("foo"), testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("len=%d, want 1", len(defs))
	}
	if defs[0].Name != "foo" {
		t.Fatalf("Name=%q, want foo", defs[0].Name)
	}
	if !reflect.DeepEqual(defs[0].Config, domain.Metadata{"script_min_iter_time_s": 0}) {
		t.Fatalf("Config=%v", defs[0].Config)
	}
}

func TestNormalizeList(t *testing.T) {
	defs, err := NormalizeRaw([]Spec{validSpec("foo"), validSpec("foo")}, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len=%d, want 2", len(defs))
	}
	if !reflect.DeepEqual(defs[0], defs[1]) {
		t.Fatalf("expected both elements equal, got %v and %v", defs[0], defs[1])
	}
}

func TestNormalizeListPreservesOrder(t *testing.T) {
	defs, err := NormalizeRaw([]Spec{validSpec("a"), validSpec("b"), validSpec("c")}, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	got := []string{defs[0].Name, defs[1].Name, defs[2].Name}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("order=%v", got)
	}
}

func TestNormalizeNamed(t *testing.T) {
	input := Named{
		Order: []string{"name", "named"},
		Specs: map[string]Spec{
			"name":  {Trainable: domain.TrainableByName("f1")},
			"named": {Trainable: domain.TrainableByName("f1")},
		},
	}
	defs, err := Normalize(input, testKinds)
	if err != nil {
		t.Fatalf("Normalize() err=%v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len=%d, want 2", len(defs))
	}
	if defs[0].Name != "name" || defs[1].Name != "named" {
		t.Fatalf("names=%q,%q", defs[0].Name, defs[1].Name)
	}
}

func TestNormalizeNamedKeyOverridesSpecName(t *testing.T) {
	input := Named{
		Order: []string{"outer"},
		Specs: map[string]Spec{
			"outer": {Name: "inner", Trainable: domain.TrainableByName("f1")},
		},
	}
	defs, err := Normalize(input, testKinds)
	if err != nil {
		t.Fatalf("Normalize() err=%v", err)
	}
	if defs[0].Name != "outer" {
		t.Fatalf("Name=%q, want outer", defs[0].Name)
	}
}

func TestClassifyRawMapUsesSortedKeys(t *testing.T) {
	defs, err := NormalizeRaw(map[string]Spec{
		"b": {Trainable: domain.TrainableByName("f1")},
		"a": {Trainable: domain.TrainableByName("f1")},
	}, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	if defs[0].Name != "a" || defs[1].Name != "b" {
		t.Fatalf("names=%q,%q, want a,b", defs[0].Name, defs[1].Name)
	}
}

func TestNormalizeUnrecognizedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{name: "bare string", raw: "hi"},
		{name: "number", raw: 42},
		{name: "list with bad element", raw: []any{validSpec("foo"), "hi"}},
	}

	for _, tt := range tests {
		_, err := NormalizeRaw(tt.raw, testKinds)
		var specErr *InvalidSpecError
		if !errors.As(err, &specErr) {
			t.Fatalf("%s: expected *InvalidSpecError, got %v", tt.name, err)
		}
	}
}

func TestNormalizeFailsWholeBatch(t *testing.T) {
	bad := validSpec("bad")
	bad.Config = "invalid"
	_, err := NormalizeRaw([]Spec{validSpec("ok"), bad}, testKinds)
	if err == nil {
		t.Fatalf("expected batch to fail")
	}
	var cfgErr *domain.ConfigTypeError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected wrapped *ConfigTypeError, got %v", err)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	defs, err := NormalizeRaw([]Spec{validSpec("a"), validSpec("b")}, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	again, err := NormalizeRaw(defs, testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw(normalized) err=%v", err)
	}
	if !reflect.DeepEqual(defs, again) {
		t.Fatalf("renormalization changed the batch:\n%v\n%v", defs, again)
	}
}

func TestNormalizeSingleDefinition(t *testing.T) {
	defs, err := NormalizeRaw(validSpec("a"), testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw() err=%v", err)
	}
	again, err := NormalizeRaw(defs[0], testKinds)
	if err != nil {
		t.Fatalf("NormalizeRaw(definition) err=%v", err)
	}
	if len(again) != 1 || !reflect.DeepEqual(defs[0], again[0]) {
		t.Fatalf("renormalized definition differs: %v vs %v", defs[0], again)
	}
}
