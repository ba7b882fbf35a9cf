package domain

// Identity is the immutable snapshot of the signed-in user.
// It is produced by the external identity provider and used by the
// engine for attribution only.
type Identity struct {
	ID          string
	DisplayName string
}
