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
	"dirpx.dev/diamond/facets/loupe"
)

// Init writes the token metadata, mints the initial supply to the admin
// and registers the ERC-20 interface id. It runs once; a second run
// reverts.
type Init struct{}

var _ apis.Module = Init{}

// InitArgs are the arguments of initERC20.
type InitArgs struct {
	Name     string
	Symbol   string
	Decimals uint8
	Admin    apis.Address
	Supply   apis.Word
}

// Calldata encodes initERC20(args).
func (a InitArgs) Calldata() ([]byte, error) {
	return abi.Pack(SelInit, a.Name, a.Symbol, a.Decimals, a.Admin, a.Supply)
}

func (Init) FacetName() string { return "ERC20Init" }

func (Init) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	sel := apis.SelectorOf(input)
	if sel != SelInit {
		return nil, apis.Revertf("ERC20 init: unknown selector %s", sel)
	}
	var a InitArgs
	if err := abi.Unpack(input, &a.Name, &a.Symbol, &a.Decimals, &a.Admin, &a.Supply); err != nil {
		return nil, abi.Malformed(sel, err)
	}
	if a.Admin.IsZero() {
		return nil, apis.Revertf("ERC20 init: zero admin")
	}
	st := f.Storage()
	current, err := Admin(st)
	if err != nil {
		return nil, err
	}
	if !current.IsZero() {
		return nil, apis.Revertf("ERC20 init: already initialized")
	}

	if err := metadata.StoreString(st, fieldName, a.Name); err != nil {
		return nil, err
	}
	if err := metadata.StoreString(st, fieldSymbol, a.Symbol); err != nil {
		return nil, err
	}
	if err := metadata.Store(st, fieldDecimals, apis.WordFromUint64(uint64(a.Decimals))); err != nil {
		return nil, err
	}
	if err := metadata.StoreAddress(st, fieldAdmin, a.Admin); err != nil {
		return nil, err
	}
	if !a.Supply.IsZero() {
		if err := mint(f, a.Admin, a.Supply); err != nil {
			return nil, err
		}
	}
	return nil, loupe.SetSupported(st, InterfaceID, true)
}
