// Package viewmodel holds the data shapes shared by admin page templates.
package viewmodel

// User represents the authenticated admin exposed to templates.
type User struct {
	UID   string
	Email string
	Role  string
}

// Layout captures shared chrome metadata (titles, navigation state, the signed-in admin).
type Layout struct {
	Title       string
	CurrentPage string
	CSRFToken   string
	User        *User
	// Notice and Error are one-shot messages carried on the redirect after a form post.
	Notice string
	Error  string
}

// LayoutData lets page structs embedding Layout satisfy LayoutProvider.
func (l *Layout) LayoutData() *Layout { return l }

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
