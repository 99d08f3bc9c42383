package core

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PageData is the view model shared by the signup, login and profile pages.
type PageData struct {
	Title        string
	Username     string
	ErrorMessage string
	CSRFToken    string
}

// LoadTemplates parses the embedded page templates. html/template escapes every
// interpolated value for its context, so user-controlled usernames render inert.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
