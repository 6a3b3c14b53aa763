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

package builder

import (
	"path"
	"reflect"
	"strings"
	"sync"

	"dirpx.dev/diamond/apis"
)

// maxUnwrap bounds pointer unwrapping when deriving a label by type.
const maxUnwrap = 8

// labelCache memoizes labels derived from types.
var labelCache sync.Map // map[reflect.Type]string

// Label derives a label for m. A module implementing apis.Namer names
// itself; otherwise the label is "pkg.Type" of its nearest named type.
func Label(m apis.Module) (string, bool) {
	if m == nil {
		return "", false
	}
	if n, ok := m.(apis.Namer); ok {
		if name := n.FacetName(); name != "" {
			return name, true
		}
	}
	name := byType(reflect.TypeOf(m))
	return name, name != ""
}

// byType resolves the label of t with memoization.
func byType(t reflect.Type) string {
	if v, ok := labelCache.Load(t); ok {
		return v.(string)
	}
	base := t
	for i := 0; base.Kind() == reflect.Ptr && i < maxUnwrap; i++ {
		base = base.Elem()
	}
	var name string
	if base.Name() != "" && base.PkgPath() != "" {
		name = path.Base(base.PkgPath()) + "." + stripTypeParams(base.Name())
	}
	labelCache.Store(t, name)
	return name
}

// stripTypeParams removes a generic instantiation suffix: "T[int]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
