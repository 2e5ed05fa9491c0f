// Package service implements the application logic between the HTTP API and
// the store: accounts, links, tags, tag suggestion, usage metering, billing,
// search, and bookmark import.
package service

import (
	"github.com/linkstashapp/linkstash-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()
