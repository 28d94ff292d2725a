package version

// Version is the current release of the agenda server.
const Version = "0.1.0"
