package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TrainableKind distinguishes the two trainable lifecycles.
type TrainableKind string

const (
	// TrainableFunction is a stateless trainable: invoked repeatedly,
	// reports progress through the report callback, has no
	// checkpoint/restore lifecycle.
	TrainableFunction TrainableKind = "function"
	// TrainableClass is a stateful trainable with explicit
	// checkpoint/restore hooks.
	TrainableClass TrainableKind = "class"
)

// ProgressFunc is the side channel a function trainable reports metrics on.
type ProgressFunc func(metrics Metadata)

// TrainFunc is a function trainable.
type TrainFunc func(ctx context.Context, config Metadata, report ProgressFunc) error

// ClassTrainable is a stateful trainable. The scheduler drives Step until
// done and persists state through the checkpoint hooks.
type ClassTrainable interface {
	Setup(config Metadata) error
	Step(ctx context.Context) (Metadata, error)
	SaveCheckpoint(w io.Writer) error
	RestoreCheckpoint(r io.Reader) error
}

// KindResolver answers whether a registered trainable name is bound to a
// function or a class. The registry implements it; the domain only ever
// asks this one question.
type KindResolver interface {
	TrainableKind(name string) (TrainableKind, error)
}

// TrainableRef references a trainable either by registered name or by
// holding the callable directly. Exactly one variant is set.
type TrainableRef struct {
	name  string
	fn    TrainFunc
	class ClassTrainable
}

// TrainableByName references a trainable registered under name.
func TrainableByName(name string) TrainableRef {
	return TrainableRef{name: strings.TrimSpace(name)}
}

// TrainableFromFunc references a bare function trainable.
func TrainableFromFunc(fn TrainFunc) TrainableRef {
	return TrainableRef{fn: fn}
}

// TrainableFromClass references a stateful trainable value.
func TrainableFromClass(c ClassTrainable) TrainableRef {
	return TrainableRef{class: c}
}

func (r TrainableRef) IsZero() bool {
	return r.name == "" && r.fn == nil && r.class == nil
}

// Name returns the registered name, or "" for a direct reference.
func (r TrainableRef) Name() string { return r.name }

func (r TrainableRef) Func() TrainFunc { return r.fn }

func (r TrainableRef) Class() ClassTrainable { return r.class }

func (r TrainableRef) String() string {
	switch {
	case r.class != nil:
		return fmt.Sprintf("class trainable %T", r.class)
	case r.fn != nil:
		return "function trainable"
	case r.name != "":
		return fmt.Sprintf("trainable %q", r.name)
	default:
		return "unset trainable"
	}
}

// Kind resolves the trainable kind. Name references are resolved through
// the given resolver; direct references answer for themselves.
func (r TrainableRef) Kind(kinds KindResolver) (TrainableKind, error) {
	switch {
	case r.class != nil:
		return TrainableClass, nil
	case r.fn != nil:
		return TrainableFunction, nil
	case r.name != "":
		if kinds == nil {
			return "", fmt.Errorf("kind resolver is required to resolve trainable %q", r.name)
		}
		return kinds.TrainableKind(r.name)
	default:
		return "", errors.New("trainable is required")
	}
}
