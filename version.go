package main

// Version is overridden at build time with -ldflags "-X main.Version=..."
var Version = "v0.1.0-dev"
