// Package config provides configuration structures and utilities for kavosh.
// It defines the runtime options for crawling, downloading, and reporting,
// and the urls.yml archive definition schema with its validation rules.
package config
