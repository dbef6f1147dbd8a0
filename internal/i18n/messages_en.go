package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Error messages
	"error.empty_input":    "Input must not be empty",
	"error.invalid_body":   "Request body must be a JSON object with an \"input\" field",
	"error.rate_limited":   "Too many requests. Please wait a minute and try again.",
	"error.body_too_large": "Request body exceeds the %d byte limit",

	// Task results
	"task.links_found":       "Parsed %d Apple Music link(s) (%s)",
	"task.type_count":        "%d %s",
	"task.summary_separator": ", ",
	"task.needs_search":      "No Apple Music links detected; search processing will be performed (not yet implemented)",

	// API description
	"api.endpoint.tasks":  "Process Apple Music links or search requests",
	"api.endpoint.health": "Health check",
}
