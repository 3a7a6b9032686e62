package camino

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/camino-run/camino.Version=...".
var Version = "0.1.0"
