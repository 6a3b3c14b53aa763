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

// Allowances exposes allowance, approve and transferFrom.
type Allowances struct{}

var (
	_ apis.Module    = Allowances{}
	_ apis.Describer = Allowances{}
)

func (Allowances) FacetName() string { return "AllowancesFacet" }

func (Allowances) Selectors() []apis.Selector {
	return []apis.Selector{SelAllowance, SelApprove, SelTransferFrom}
}

func (Allowances) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	st := f.Storage()
	switch sel := apis.SelectorOf(input); sel {
	case SelAllowance:
		var owner, spender apis.Address
		if err := abi.Unpack(input, &owner, &spender); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		v, err := Allowance(st, owner, spender)
		if err != nil {
			return nil, err
		}
		return abi.Encode(v)
	case SelApprove:
		var (
			spender apis.Address
			value   apis.Word
		)
		if err := abi.Unpack(input, &spender, &value); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		if spender.IsZero() {
			return nil, apis.Revertf("ERC20: approve to the zero address")
		}
		if err := st.Store(allowanceSlot(f.Caller(), spender), value); err != nil {
			return nil, err
		}
		f.Emit(apis.Event{Name: ApprovalEvent, Payload: Approval{Owner: f.Caller(), Spender: spender, Value: value}})
		return abi.Encode(true)
	case SelTransferFrom:
		var (
			from, to apis.Address
			value    apis.Word
		)
		if err := abi.Unpack(input, &from, &to, &value); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		allowed, err := Allowance(st, from, f.Caller())
		if err != nil {
			return nil, err
		}
		left, ok := sub(allowed, value)
		if !ok {
			return nil, apis.Revertf("ERC20: insufficient allowance")
		}
		if err := st.Store(allowanceSlot(from, f.Caller()), left); err != nil {
			return nil, err
		}
		if err := move(f, from, to, value); err != nil {
			return nil, err
		}
		return abi.Encode(true)
	default:
		return nil, apis.Revertf("ERC20: unknown selector %s", sel)
	}
}
