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

package erc20

import (
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
)

// Constants exposes the token metadata written by Init.
type Constants struct{}

var (
	_ apis.Module    = Constants{}
	_ apis.Describer = Constants{}
)

func (Constants) FacetName() string { return "ERC20ConstantsFacet" }

func (Constants) Selectors() []apis.Selector {
	return []apis.Selector{SelName, SelSymbol, SelDecimals, SelAdmin}
}

func (Constants) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	st := f.Storage()
	switch sel := apis.SelectorOf(input); sel {
	case SelName, SelSymbol:
		field := uint64(fieldName)
		if sel == SelSymbol {
			field = fieldSymbol
		}
		s, err := metadata.LoadString(st, field)
		if err != nil {
			return nil, err
		}
		return abi.Encode(s)
	case SelDecimals:
		w, err := metadata.Load(st, fieldDecimals)
		if err != nil {
			return nil, err
		}
		return abi.Encode(uint8(w.Uint64()))
	case SelAdmin:
		admin, err := Admin(st)
		if err != nil {
			return nil, err
		}
		return abi.Encode(admin)
	default:
		return nil, apis.Revertf("ERC20: unknown selector %s", sel)
	}
}
