package app

// Version is stamped at build time:
//
//	go build -ldflags "-X github.com/applytrack/applytrack-backend/internal/app.Version=$(git describe --tags)"
var Version = "dev"
