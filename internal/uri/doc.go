// Package uri classifies asset references.
//
// A reference is one of:
//   - Invalid: blank, unparseable, non-HTTP or unresolvable
//   - LocalExecutable: a relative path ending in the executable suffix (".aspx")
//   - InternalHandler: a relative path under the resource handler route, or any
//     URL that resolves back to the current application
//   - External: everything else
//
// Classification is pure; the host environment supplies the application path,
// base-URL resolution and the is-local predicate through Env.
package uri
