// Package internalcheck holds static policy tests for the bindings.
//
// The tests load the module's packages with golang.org/x/tools/go/packages
// and fail when code outside the dispatcher touches the native error slot or
// arms finalizers on native objects. The package has no exported API.
package internalcheck
