package httpx

// CurrentPage identifiers used by handlers, navigation and the content template lookup.
const (
	PageDashboard = "dashboard"
	PageUsers     = "users"
)

// Standalone page templates, rendered without the admin layout.
const (
	templateSignIn       = "sign-in"
	templateSignUp       = "sign-up"
	templateUnauthorized = "unauthorized"
)

// TemplatePathFromRoot is where the templates live on disk, for dev-mode reloads.
const TemplatePathFromRoot = "web/templates"

//nolint:gochecknoglobals // static read-only lookup
var contentTemplates = map[string]string{
	PageDashboard: "dashboard-content",
	PageUsers:     "users-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
