package version

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "0.1.0-dev"
