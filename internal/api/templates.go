package api

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex         = "index.html"
	pageTutorial      = "tutorial.html"
	partialQuest      = "quest.html"
	partialInventory  = "inventory.html"
	partialNotice     = "notification.html"
	partialFeedbackOK = "feedback.html"
)

// LoadTemplates parses the embedded pages and partials into one set so pages
// can include partials by name.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
