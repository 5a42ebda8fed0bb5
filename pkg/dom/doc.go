// Package dom models a rendered page as a mutable element tree parsed with
// golang.org/x/net/html. It stands in for the browser DOM: controls carry
// live values that can be edited, elements can be detached, and events
// bubble from a target to the document so hooks can listen the way they
// would in a browser. All accessors are safe for concurrent use; listeners
// run outside the document lock.
package dom
