// Package config provides configuration structures and utilities for mdtidy.
// It defines the conversion options, file handling modes and report
// preferences, and loads the optional .mdtidy file with per-path overrides.
package config
