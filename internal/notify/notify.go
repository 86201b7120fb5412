package notify

import (
	"context"
)

// Permission is the tri-state notification capability
type Permission string

const (
	// PermissionDefault means the user has not been asked yet
	PermissionDefault Permission = "default"
	// PermissionGranted means notifications may be shown
	PermissionGranted Permission = "granted"
	// PermissionDenied means notifications must not be shown
	PermissionDenied Permission = "denied"
)

// Gate is the notification permission capability. It is injected into the
// scheduler rather than read from process globals so tests can control it.
// Platforms may let the user reset a resolved state back to default.
type Gate interface {
	// Permission returns the current state without prompting
	Permission() Permission
	// RequestPermission asks the platform to resolve the capability. It
	// blocks until the user responds; there is no timeout beyond ctx.
	RequestPermission(ctx context.Context) (Permission, error)
}

// Notifier is the sink a fired reminder writes to. tag is a per-commitment
// de-duplication key so a notification center can collapse repeats.
type Notifier interface {
	Show(title, body, tag string)
}

// StaticGate is a Gate fixed at a single state. Useful for tests and for
// headless deployments where delivery is always on or always off.
type StaticGate Permission

// Permission returns the fixed state
func (g StaticGate) Permission() Permission { return Permission(g) }

// RequestPermission returns the fixed state without prompting
func (g StaticGate) RequestPermission(ctx context.Context) (Permission, error) {
	return Permission(g), nil
}
