package web

import "embed"

// Templates embeds the dashboard HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds the stylesheet served under /static.
//
//go:embed static/**/*
var Static embed.FS
