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

// Package erc20 is a fungible token split across several facets sharing
// two storage partitions: token metadata and token accounting.
//
// Each facet is deployed and cut in independently. Init is meant to be
// passed as the initializer of the cut that adds the first of them.
package erc20

import (
	"math/big"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
	"dirpx.dev/diamond/selector"
)

// Event names.
const (
	TransferEvent = "Transfer"
	ApprovalEvent = "Approval"
)

// Transfer is the payload of a Transfer event. Mints have a zero From,
// burns a zero To.
type Transfer struct {
	From  apis.Address
	To    apis.Address
	Value apis.Word
}

// Approval is the payload of an Approval event.
type Approval struct {
	Owner   apis.Address
	Spender apis.Address
	Value   apis.Word
}

var (
	SelName         = selector.Of("name()")
	SelSymbol       = selector.Of("symbol()")
	SelDecimals     = selector.Of("decimals()")
	SelAdmin        = selector.Of("admin()")
	SelTotalSupply  = selector.Of("totalSupply()")
	SelBalanceOf    = selector.Of("balanceOf(address)")
	SelTransfer     = selector.Of("transfer(address,uint256)")
	SelAllowance    = selector.Of("allowance(address,address)")
	SelApprove      = selector.Of("approve(address,uint256)")
	SelTransferFrom = selector.Of("transferFrom(address,address,uint256)")
	SelMint         = selector.Of("mint(address,uint256)")
	SelBurn         = selector.Of("burn(address,uint256)")
	SelInit         = selector.Of("initERC20(string,string,uint8,address,uint256)")
)

// InterfaceID is the ERC-165 id of the ERC-20 surface.
var InterfaceID = selector.Interface(
	SelTotalSupply, SelBalanceOf, SelTransfer,
	SelAllowance, SelApprove, SelTransferFrom,
)

var (
	metadata = partition.For(partition.MetadataNamespace)
	token    = partition.For(partition.TokenNamespace)
)

const (
	fieldName = iota
	fieldSymbol
	fieldDecimals
	fieldAdmin
)

const (
	fieldTotalSupply = iota
	fieldBalances
	fieldAllowances
)

var maxWord = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func balanceSlot(holder apis.Address) apis.Word {
	return token.Mapping(fieldBalances, holder[:])
}

func allowanceSlot(owner, spender apis.Address) apis.Word {
	return partition.MappingSlot(token.Mapping(fieldAllowances, owner[:]), spender[:])
}

// BalanceOf returns the balance of holder.
func BalanceOf(st apis.Storage, holder apis.Address) (apis.Word, error) {
	return st.Load(balanceSlot(holder))
}

// TotalSupply returns the total supply.
func TotalSupply(st apis.Storage) (apis.Word, error) {
	return token.Load(st, fieldTotalSupply)
}

// Allowance returns how much spender may move on behalf of owner.
func Allowance(st apis.Storage, owner, spender apis.Address) (apis.Word, error) {
	return st.Load(allowanceSlot(owner, spender))
}

// Admin returns the supply administrator.
func Admin(st apis.Storage) (apis.Address, error) {
	return metadata.LoadAddress(st, fieldAdmin)
}

func add(a, b apis.Word) (apis.Word, bool) {
	sum := new(big.Int).Add(a.Big(), b.Big())
	if sum.Cmp(maxWord) > 0 {
		return apis.Word{}, false
	}
	return apis.WordFromBig(sum), true
}

func sub(a, b apis.Word) (apis.Word, bool) {
	if a.Big().Cmp(b.Big()) < 0 {
		return apis.Word{}, false
	}
	return apis.WordFromBig(new(big.Int).Sub(a.Big(), b.Big())), true
}

// move transfers value from one holder to another and emits Transfer.
func move(f apis.Frame, from, to apis.Address, value apis.Word) error {
	if to.IsZero() {
		return apis.Revertf("ERC20: transfer to the zero address")
	}
	st := f.Storage()
	fromBal, err := BalanceOf(st, from)
	if err != nil {
		return err
	}
	left, ok := sub(fromBal, value)
	if !ok {
		return apis.Revertf("ERC20: insufficient balance")
	}
	if err := st.Store(balanceSlot(from), left); err != nil {
		return err
	}
	toBal, err := BalanceOf(st, to)
	if err != nil {
		return err
	}
	next, ok := add(toBal, value)
	if !ok {
		return apis.Revertf("ERC20: balance overflow")
	}
	if err := st.Store(balanceSlot(to), next); err != nil {
		return err
	}
	f.Emit(apis.Event{Name: TransferEvent, Payload: Transfer{From: from, To: to, Value: value}})
	return nil
}

// mint creates value tokens for to.
func mint(f apis.Frame, to apis.Address, value apis.Word) error {
	if to.IsZero() {
		return apis.Revertf("ERC20: mint to the zero address")
	}
	st := f.Storage()
	supply, err := TotalSupply(st)
	if err != nil {
		return err
	}
	supply, ok := add(supply, value)
	if !ok {
		return apis.Revertf("ERC20: total supply overflow")
	}
	bal, err := BalanceOf(st, to)
	if err != nil {
		return err
	}
	// bal <= supply, so this cannot overflow once the supply did not.
	bal, _ = add(bal, value)
	if err := token.Store(st, fieldTotalSupply, supply); err != nil {
		return err
	}
	if err := st.Store(balanceSlot(to), bal); err != nil {
		return err
	}
	f.Emit(apis.Event{Name: TransferEvent, Payload: Transfer{To: to, Value: value}})
	return nil
}

// burn destroys value tokens held by from.
func burn(f apis.Frame, from apis.Address, value apis.Word) error {
	st := f.Storage()
	bal, err := BalanceOf(st, from)
	if err != nil {
		return err
	}
	bal, ok := sub(bal, value)
	if !ok {
		return apis.Revertf("ERC20: burn amount exceeds balance")
	}
	supply, err := TotalSupply(st)
	if err != nil {
		return err
	}
	supply, _ = sub(supply, value)
	if err := st.Store(balanceSlot(from), bal); err != nil {
		return err
	}
	if err := token.Store(st, fieldTotalSupply, supply); err != nil {
		return err
	}
	f.Emit(apis.Event{Name: TransferEvent, Payload: Transfer{From: from, Value: value}})
	return nil
}
