package api

import (
	"net/http"
	"strings"
)

const (
	headerHXRequest  = "HX-Request"
	headerHXRedirect = "HX-Redirect"
	headerHXTrigger  = "HX-Trigger"

	eventQuestCompleted = "quest-completed"
)

func isHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(headerHXRequest), "true")
}
