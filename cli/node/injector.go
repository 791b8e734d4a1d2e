package node

import (
	"reflect"
	"sync"

	"golang.org/x/xerrors"
)

type dependency struct {
	typ   reflect.Type
	value reflect.Value
}

// reflectInjector stores the dependencies in the order they were injected and
// resolves an interface to the first one assignable to it.
//
// - implements node.Injector
type reflectInjector struct {
	sync.Mutex
	deps []dependency
}

// NewInjector returns an injector without dependencies.
func NewInjector() Injector {
	return &reflectInjector{}
}

// Resolve implements node.Injector.
func (inj *reflectInjector) Resolve(v interface{}) error {
	target := reflect.ValueOf(v)
	if target.Kind() != reflect.Ptr {
		return xerrors.New("expect a pointer")
	}

	elem := target.Elem()
	if !elem.IsValid() {
		return xerrors.Errorf("reflect value '%v' is invalid", target)
	}

	inj.Lock()
	defer inj.Unlock()

	for _, dep := range inj.deps {
		if dep.typ.AssignableTo(elem.Type()) {
			elem.Set(dep.value)
			return nil
		}
	}

	return xerrors.Errorf("couldn't find dependency for '%v'", elem.Type())
}

// Inject implements node.Injector. A dependency replaces the previous one of
// the same concrete type but keeps its position.
func (inj *reflectInjector) Inject(v interface{}) {
	dep := dependency{
		typ:   reflect.TypeOf(v),
		value: reflect.ValueOf(v),
	}

	inj.Lock()
	defer inj.Unlock()

	for i := range inj.deps {
		if inj.deps[i].typ == dep.typ {
			inj.deps[i] = dep
			return
		}
	}

	inj.deps = append(inj.deps, dep)
}
