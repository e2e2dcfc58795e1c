package devlog

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// theme.js (light/dark toggle)
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
