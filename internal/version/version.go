package version

// Version is the semantic version of the binary. Overridden at build time
// with -ldflags "-X github.com/docvault-io/docvault/internal/version.Version=...".
var Version = "0.1.0-dev"
