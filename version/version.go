package version

// VERSION is the version of the adapter. It is injected at build time.
var VERSION = "main"

// AppVersion returns the application identity announced in user agents.
func AppVersion() string {
	return "repository-index-adapter " + VERSION
}
