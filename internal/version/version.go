package version

// Version is the application version, overridable at build time with
// -ldflags "-X ytmp3/internal/version.Version=..."
var Version = "0.3.0"
