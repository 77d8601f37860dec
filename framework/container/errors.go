package container

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrServiceNotFound is matched by every *ServiceNotFoundError.
	ErrServiceNotFound = errors.New("container: service not found")

	// ErrContainerClosed is returned by Get on a closing or closed Container.
	ErrContainerClosed = errors.New("container: container is closed")

	// ErrContextRequired is returned by Get when the registered factory is
	// context-bound and must be resolved with GetContext.
	ErrContextRequired = errors.New("container: factory requires a context, use GetContext")

	// ErrCircularDependency is returned when a factory (transitively) asks
	// for the service it is building.
	ErrCircularDependency = errors.New("container: circular dependency")

	// ErrNilRegistry is returned by CheckHealth when no registry is given.
	ErrNilRegistry = errors.New("container: nil registry")

	// ErrNoContainer is returned by ResolveFrom when ctx carries no Container.
	ErrNoContainer = errors.New("container: no container in context")
)

// ServiceNotFoundError is returned when neither a local override nor the
// Registry knows the requested identity.
type ServiceNotFoundError struct{ ID ServiceID }

func (e *ServiceNotFoundError) Error() string {
	return "container: no registration for " + strconv.Quote(e.ID.String())
}

// Is makes errors.Is(err, ErrServiceNotFound) work.
func (e *ServiceNotFoundError) Is(target error) bool { return target == ErrServiceNotFound }

// FactoryError wraps an error (or recovered panic) raised while a factory
// acquired its service. The identity is left unresolved.
type FactoryError struct {
	ID  ServiceID
	Err error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("container: factory for %q failed: %v", e.ID.String(), e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// ServiceTypeError is returned by Resolve when the instance does not have the
// requested Go type.
type ServiceTypeError struct {
	ID   ServiceID
	Want string
	Got  string
}

func (e *ServiceTypeError) Error() string {
	return fmt.Sprintf("container: %q resolved to %s, want %s", e.ID.String(), e.Got, e.Want)
}

// ReleaseError is one failed release action.
type ReleaseError struct {
	ID  ServiceID
	Err error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("release %q: %v", e.ID.String(), e.Err)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// TeardownError aggregates every release failure of one drain, in the order
// the actions ran.
type TeardownError struct {
	Causes []error
}

func (e *TeardownError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("container: %d release action(s) failed: %s", len(e.Causes), strings.Join(msgs, "; "))
}

func (e *TeardownError) Unwrap() []error { return e.Causes }

// panicError turns a recovered value into an error.
func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
