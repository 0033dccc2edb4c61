// Package permission evaluates role and permission membership for
// authenticated users.
//
// # Bypass rule
//
// Users holding the admin or system role satisfy every permission check
// unconditionally. The bypass is evaluated before and independent of the
// requested permission string; it cannot be narrowed per permission.
//
// # Architecture boundaries
//
// This package owns the permission [Registry], the role [Roles] table, and
// the [Allowed] predicate. It does not know about sessions, tokens, or
// users beyond the role and permission slices handed to it.
package permission
