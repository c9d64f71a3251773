// Copyright © 2025 The gnls authors

// Package docs embeds the GN language reference for use by the CLI.
package docs

import _ "embed"

//go:embed gn-language.md
var LangGuide string
