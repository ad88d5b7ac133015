package ui

import "context"

// posReleased marks a guard whose scene has been released; any completion
// that observes it is stale and must be discarded.
const posReleased = -1

// opGuard ties a scene's in-flight DAV operation to its place on the stack.
// The captured position is the pop target a completion uses to dismiss the
// loading scene (and, on success, the issuing scene). The cancel func is the
// operation handle; Release cancels it so a removed scene's operation cannot
// outlive it unobserved.
type opGuard struct {
	pos    int
	cancel context.CancelFunc
}

func newOpGuard() opGuard {
	return opGuard{pos: posReleased}
}

// capture records the scene's current position. Called from Show, so the
// position always reflects the latest depth the scene was visible at.
func (g *opGuard) capture(stack *SceneStack) {
	g.pos = stack.Len() - 1
}

// begin derives the context for one operation and keeps its cancel func as
// the pending handle. A scene issues at most one operation at a time.
func (g *opGuard) begin(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	g.cancel = cancel
	return ctx
}

// finish ends the pending operation and reports whether the scene is still
// live. A false result means the scene was released while the operation was
// outstanding; the completion must take no further action. The cancel is
// called so the derived context is not leaked.
func (g *opGuard) finish() (pos int, live bool) {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return g.pos, g.pos != posReleased
}

// release cancels any pending operation and poisons the captured position.
// Safe to call with nothing in flight.
func (g *opGuard) release() {
	g.pos = posReleased
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
