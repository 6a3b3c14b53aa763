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

// Balances exposes totalSupply, balanceOf and transfer.
type Balances struct{}

var (
	_ apis.Module    = Balances{}
	_ apis.Describer = Balances{}
)

func (Balances) FacetName() string { return "BalancesFacet" }

func (Balances) Selectors() []apis.Selector {
	return []apis.Selector{SelTotalSupply, SelBalanceOf, SelTransfer}
}

func (Balances) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	st := f.Storage()
	switch sel := apis.SelectorOf(input); sel {
	case SelTotalSupply:
		supply, err := TotalSupply(st)
		if err != nil {
			return nil, err
		}
		return abi.Encode(supply)
	case SelBalanceOf:
		var holder apis.Address
		if err := abi.Unpack(input, &holder); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		bal, err := BalanceOf(st, holder)
		if err != nil {
			return nil, err
		}
		return abi.Encode(bal)
	case SelTransfer:
		var (
			to    apis.Address
			value apis.Word
		)
		if err := abi.Unpack(input, &to, &value); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		if err := move(f, f.Caller(), to, value); err != nil {
			return nil, err
		}
		return abi.Encode(true)
	default:
		return nil, apis.Revertf("ERC20: unknown selector %s", sel)
	}
}
