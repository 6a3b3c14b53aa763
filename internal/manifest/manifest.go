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

// Package manifest loads scenario files describing a router: its owner,
// bootstrap facets, optional initializer and a sequence of calls and cuts
// to run against it.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"dirpx.dev/diamond/apis"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
)

var (
	// ErrStepShape is returned when a step is neither a call nor a cut, or both.
	ErrStepShape = errors.New("diamond(manifest): step must have exactly one of call or cut")
	// ErrUnknownFacet is returned when a manifest names a facet the catalog lacks.
	ErrUnknownFacet = errors.New("diamond(manifest): unknown facet")
)

// Manifest is a router scenario.
type Manifest struct {
	Owner  string      `yaml:"owner" validate:"required,address"`
	Config Config      `yaml:"config"`
	Store  Store       `yaml:"store"`
	Facets []string    `yaml:"facets" validate:"required,min=1,dive,required"`
	Init   *Invocation `yaml:"init,omitempty"`
	Steps  []Step      `yaml:"steps" validate:"dive"`
}

// Config mirrors apis.Config. Zero values keep the defaults.
type Config struct {
	MaxCallDepth    int   `yaml:"max_call_depth" validate:"gte=0"`
	VerifyFacetCode *bool `yaml:"verify_facet_code,omitempty"`
}

// Store selects the storage backend.
type Store struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=memory badger"`
	Path   string `yaml:"path" validate:"required_if=Driver badger"`
}

// Invocation names a module from the catalog and the call to make on it.
type Invocation struct {
	Facet string   `yaml:"facet" validate:"required"`
	Call  string   `yaml:"call" validate:"required,signature"`
	Args  []string `yaml:"args"`
}

// Step is either a call through the router or a diamondCut.
type Step struct {
	Name   string      `yaml:"name" validate:"required"`
	From   string      `yaml:"from" validate:"required,address"`
	Value  string      `yaml:"value,omitempty"`
	Call   string      `yaml:"call,omitempty" validate:"omitempty,signature"`
	Args   []string    `yaml:"args,omitempty"`
	Cut    []CutEntry  `yaml:"cut,omitempty" validate:"dive"`
	Init   *Invocation `yaml:"init,omitempty"`
	Expect string      `yaml:"expect,omitempty" validate:"omitempty,oneof=ok no_route unauthorized conflict reverted error"`
}

// CutEntry is a diamondCut entry naming a catalog facet. Add and Replace
// default to every selector the facet describes.
type CutEntry struct {
	Action    string   `yaml:"action" validate:"required,oneof=add replace remove"`
	Facet     string   `yaml:"facet" validate:"required_unless=Action remove"`
	Selectors []string `yaml:"selectors,omitempty" validate:"dive,signature|selector"`
}

var (
	validate *validator.Validate

	signatureRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(.*\)$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("address", validateAddress)
	_ = validate.RegisterValidation("signature", validateSignature)
	_ = validate.RegisterValidation("selector", validateSelector)
}

func validateAddress(fl validator.FieldLevel) bool {
	_, err := apis.ParseAddress(fl.Field().String())
	return err == nil
}

func validateSignature(fl validator.FieldLevel) bool {
	return signatureRe.MatchString(fl.Field().String())
}

func validateSelector(fl validator.FieldLevel) bool {
	_, err := apis.ParseSelector(fl.Field().String())
	return err == nil
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("diamond(manifest): read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("diamond(manifest): parse: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks field constraints and step shape.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("diamond(manifest): invalid: %w", err)
	}
	for i, s := range m.Steps {
		if (s.Call == "") == (len(s.Cut) == 0) {
			return fmt.Errorf("%w: step %d (%s)", ErrStepShape, i, s.Name)
		}
	}
	if m.Store.Driver == "" {
		m.Store.Driver = DriverMemory
	}
	return nil
}

// FacetNames lists every facet name the manifest refers to, bootstrap first,
// without duplicates.
func (m *Manifest) FacetNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, f := range m.Facets {
		add(f)
	}
	if m.Init != nil {
		add(m.Init.Facet)
	}
	for _, s := range m.Steps {
		for _, c := range s.Cut {
			add(c.Facet)
		}
		if s.Init != nil {
			add(s.Init.Facet)
		}
	}
	return out
}

// CheckFacets reports the first facet name for which known returns false.
func (m *Manifest) CheckFacets(known func(name string) bool) error {
	for _, name := range m.FacetNames() {
		if !known(name) {
			return fmt.Errorf("%w: %s", ErrUnknownFacet, name)
		}
	}
	return nil
}
