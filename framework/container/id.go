package container

import (
	"reflect"
	"strings"
)

// ServiceID identifies an abstract service. It is comparable and is the only
// lookup key used by the Registry and by Container caches.
//
//	dbID := container.TypeOf[*sql.DB]()
//	primary := container.Named[*sql.DB]("primary")
type ServiceID struct {
	typ  reflect.Type
	name string
}

// TypeOf returns the identity of type T. Interface types are allowed and are
// the usual way to name an abstract capability.
func TypeOf[T any]() ServiceID {
	return ServiceID{typ: reflect.TypeFor[T]()}
}

// Named returns an identity for T qualified by name, for registering several
// services of the same Go type.
func Named[T any](name string) ServiceID {
	return ServiceID{typ: reflect.TypeFor[T](), name: name}
}

// Type returns the Go type behind the identity.
func (id ServiceID) Type() reflect.Type { return id.typ }

// Name returns the qualifier passed to Named, or "".
func (id ServiceID) Name() string { return id.name }

// IsZero reports whether id was never initialised.
func (id ServiceID) IsZero() bool { return id.typ == nil }

// String renders the identity as "pkg.Type" or "pkg.Type#name".
func (id ServiceID) String() string {
	if id.typ == nil {
		return "<invalid>"
	}
	s := id.typ.String()
	if id.name != "" {
		s += "#" + id.name
	}
	return s
}

// QualifiedString is String with the package name replaced by the full import
// path, so identities from two packages of the same name stay apart:
// "*example.com/a/model.User".
func (id ServiceID) QualifiedString() string {
	s := id.String()
	if id.typ == nil {
		return s
	}
	named := id.typ
	for named.Name() == "" {
		switch named.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan, reflect.Map:
			named = named.Elem()
			continue
		}
		return s
	}
	if named.PkgPath() == "" {
		return s
	}
	return strings.Replace(s, named.String(), named.PkgPath()+"."+named.Name(), 1)
}

// TypeKey returns the identity of the dynamic type of v. Pass a typed nil
// pointer to an interface to name the interface itself:
//
//	id := container.TypeKey((*UserRepository)(nil)) // container.TypeOf[UserRepository]()
func TypeKey(v any) ServiceID {
	t := reflect.TypeOf(v)
	if t == nil {
		return ServiceID{}
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return ServiceID{typ: t}
}
