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

// SupplyRegulator exposes admin-only mint and burn.
type SupplyRegulator struct{}

var (
	_ apis.Module    = SupplyRegulator{}
	_ apis.Describer = SupplyRegulator{}
)

func (SupplyRegulator) FacetName() string { return "SupplyRegulatorFacet" }

func (SupplyRegulator) Selectors() []apis.Selector {
	return []apis.Selector{SelMint, SelBurn}
}

func (SupplyRegulator) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	sel := apis.SelectorOf(input)
	if sel != SelMint && sel != SelBurn {
		return nil, apis.Revertf("ERC20: unknown selector %s", sel)
	}
	var (
		account apis.Address
		value   apis.Word
	)
	if err := abi.Unpack(input, &account, &value); err != nil {
		return nil, abi.Malformed(sel, err)
	}
	admin, err := Admin(f.Storage())
	if err != nil {
		return nil, err
	}
	if f.Caller() != admin {
		return nil, apis.Revertf("ERC20: caller is not the admin")
	}
	if sel == SelMint {
		err = mint(f, account, value)
	} else {
		err = burn(f, account, value)
	}
	return nil, err
}
