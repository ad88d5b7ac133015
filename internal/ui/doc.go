// Package ui implements the scene-stack navigation controller for the davman
// terminal client.
//
// Core abstractions:
//   - Scene: a single, mutually-exclusive UI state with a show/hide/release lifecycle
//   - SceneStack: ordered stack of scenes; only the top is visible and interactive
//   - opGuard: ties an in-flight DAV operation to the scene that issued it, so a
//     completion arriving after the scene was released is dropped
//
// Scenes never splice the stack directly; all navigation goes through
// SceneStack.Push and SceneStack.Pop, which enforce the hide/release/show
// ordering.
package ui
