package models

// BillfoldContext is the type for all context keys that values are passed
// around with in gin contexts.
type BillfoldContext string

const (
	// DBContextURL is the base URL the API is reachable under.
	DBContextURL BillfoldContext = "billfold-url"

	// ContextUser is the authenticated user, set by the router middleware
	// for all authenticated routes.
	ContextUser BillfoldContext = "billfold-user"
)
