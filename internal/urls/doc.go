// Package urls holds every fixed external URL bacli talks to or prints.
//
// Keeping them in one place means a moved repository or renamed release
// asset is a one-line change.
//
// Usage:
//
//	import "github.com/bacli/bacli/internal/urls"
//
//	fmt.Printf("Release notes: %s\n", urls.ReleasePage(tag))
package urls
