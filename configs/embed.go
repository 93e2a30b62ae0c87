// Package configs provides embedded configuration templates for graphquery.
//
// Templates are embedded at build time with go:embed so they ship in every
// distribution. `graphquery init` writes them into the working directory as
// a starting point.
package configs

import _ "embed"

// ConfigTemplate is the template for project configuration.
// Created by `graphquery init` as .graphquery.yaml in the project root.
//
//go:embed config.example.yaml
var ConfigTemplate string

// GraphTemplate is a worked example graph definition.
// Created by `graphquery init` as graph.yaml in the project root.
//
//go:embed graph.example.yaml
var GraphTemplate string
