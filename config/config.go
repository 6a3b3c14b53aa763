/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/


package config

import (
	"dirpx.dev/diamond/apis"
)

const (
	// DefaultMaxCallDepth represents the default for MaxCallDepth.
	// Matches the call depth limit of the EVM.
	DefaultMaxCallDepth = 1024
	// DefaultVerifyFacetCode represents the default for VerifyFacetCode.
	// When true, cut targets and initializers must have deployed code.
	DefaultVerifyFacetCode = true
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure MaxCallDepth is valid.
	if cfg.MaxCallDepth < 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		MaxCallDepth:    DefaultMaxCallDepth,
		VerifyFacetCode: DefaultVerifyFacetCode,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithMaxCallDepth sets the MaxCallDepth option.
// A negative value resets to the default.
func WithMaxCallDepth(max int) Option {
	return func(c *apis.Config) {
		if max < 0 {
			c.MaxCallDepth = DefaultMaxCallDepth
			return
		}
		c.MaxCallDepth = max
	}
}

// WithVerifyFacetCode sets the VerifyFacetCode option.
func WithVerifyFacetCode(verify bool) Option {
	return func(c *apis.Config) {
		c.VerifyFacetCode = verify
	}
}
