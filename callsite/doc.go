// Package callsite implements process-wide interning of call-shape
// descriptors: the ordered sequence of argument kinds (object, integer,
// number, string, ...), how many are positional versus named, and
// whether the call flattens an argument list at the tail.
//
// Interned callsites are compared by pointer once interned, which lets
// the rest of a VM treat "same callsite" as a pointer-equality check
// instead of a structural one. A handful of common shapes (zero-arity,
// one object, two objects, ...) are allocated once at package init and
// reused everywhere a caller would otherwise construct and intern the
// same tiny descriptor over and over.
package callsite
