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

package erc20_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/diamond"
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/builder"
	"dirpx.dev/diamond/facets/cutfacet"
	"dirpx.dev/diamond/facets/erc20"
	"dirpx.dev/diamond/facets/loupe"
	"dirpx.dev/diamond/facets/ownership"
	"dirpx.dev/diamond/host"
	"dirpx.dev/diamond/storage/memory"
)

var (
	owner = apis.Address{19: 0x01}
	admin = apis.Address{19: 0x02}
	user1 = apis.Address{19: 0x03}
	user2 = apis.Address{19: 0x04}
	user3 = apis.Address{19: 0x05}
)

// ether returns n * 10^18.
func ether(n int64) apis.Word {
	return apis.WordFromBig(new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))
}

type token struct {
	t *testing.T
	r *diamond.Router
	b *builder.Builder
}

func (tk *token) call(from apis.Address, sel apis.Selector, args ...any) ([]byte, error) {
	rcpt, err := tk.r.Call(context.Background(), apis.Message{From: from, Data: abi.MustPack(sel, args...)})
	if err != nil {
		return nil, err
	}
	return rcpt.Return, nil
}

func (tk *token) mustCall(from apis.Address, sel apis.Selector, args ...any) []byte {
	tk.t.Helper()
	ret, err := tk.call(from, sel, args...)
	require.NoError(tk.t, err)
	return ret
}

func (tk *token) word(sel apis.Selector, args ...any) apis.Word {
	tk.t.Helper()
	var w apis.Word
	require.NoError(tk.t, abi.Decode(tk.mustCall(user3, sel, args...), &w))
	return w
}

func (tk *token) addFacet(m apis.Module, init apis.Address, calldata []byte) {
	tk.t.Helper()
	_, err := tk.b.Add(m)
	require.NoError(tk.t, err)
	data, err := cutfacet.Calldata(tk.b.Cuts(), init, calldata)
	require.NoError(tk.t, err)
	_, err = tk.r.Call(context.Background(), apis.Message{From: owner, Data: data})
	require.NoError(tk.t, err)
}

func newToken(t *testing.T) *token {
	t.Helper()
	h := host.New()
	b := builder.New(h)
	for _, m := range []apis.Module{cutfacet.New(nil), loupe.New(), ownership.New()} {
		_, err := b.Add(m)
		require.NoError(t, err)
	}
	r, err := diamond.New(context.Background(), h, memory.New(), diamond.Args{Owner: owner}, b.Cuts())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return &token{t: t, r: r, b: b}
}

func TestToken_EndToEnd(t *testing.T) {
	tk := newToken(t)
	totalSupply := ether(2_500_000)
	amount := ether(1000)

	initAddr, err := tk.b.Deploy(erc20.Init{})
	require.NoError(t, err)
	calldata, err := erc20.InitArgs{
		Name:     "Token Name",
		Symbol:   "SYMBOL",
		Decimals: 18,
		Admin:    admin,
		Supply:   totalSupply,
	}.Calldata()
	require.NoError(t, err)

	// Constants, installed together with the initializer.
	tk.addFacet(erc20.Constants{}, initAddr, calldata)
	var (
		name, symbol string
		decimals     uint8
		gotAdmin     apis.Address
	)
	require.NoError(t, abi.Decode(tk.mustCall(user1, erc20.SelName), &name))
	require.NoError(t, abi.Decode(tk.mustCall(user1, erc20.SelSymbol), &symbol))
	require.NoError(t, abi.Decode(tk.mustCall(user1, erc20.SelDecimals), &decimals))
	require.NoError(t, abi.Decode(tk.mustCall(user1, erc20.SelAdmin), &gotAdmin))
	assert.Equal(t, "Token Name", name)
	assert.Equal(t, "SYMBOL", symbol)
	assert.EqualValues(t, 18, decimals)
	assert.Equal(t, admin, gotAdmin)

	// Balances.
	tk.addFacet(erc20.Balances{}, apis.ZeroAddress, nil)
	assert.Equal(t, totalSupply, tk.word(erc20.SelTotalSupply))
	assert.Equal(t, totalSupply, tk.word(erc20.SelBalanceOf, admin))

	tk.mustCall(admin, erc20.SelTransfer, user1, amount)
	assert.Equal(t, apis.WordFromBig(new(big.Int).Sub(totalSupply.Big(), amount.Big())), tk.word(erc20.SelBalanceOf, admin))
	assert.Equal(t, amount, tk.word(erc20.SelBalanceOf, user1))
	tk.mustCall(user1, erc20.SelTransfer, admin, amount)

	_, err = tk.call(user1, erc20.SelTransfer, admin, amount)
	var rv *apis.Revert
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "ERC20: insufficient balance", rv.Reason)

	// Allowances.
	tk.addFacet(erc20.Allowances{}, apis.ZeroAddress, nil)
	assert.True(t, tk.word(erc20.SelAllowance, admin, user1).IsZero())
	approve, moved := ether(100), ether(30)
	tk.mustCall(admin, erc20.SelApprove, user1, approve)
	assert.Equal(t, approve, tk.word(erc20.SelAllowance, admin, user1))
	tk.mustCall(user1, erc20.SelTransferFrom, admin, user2, moved)
	assert.Equal(t, moved, tk.word(erc20.SelBalanceOf, user2))
	assert.Equal(t, apis.WordFromBig(new(big.Int).Sub(totalSupply.Big(), moved.Big())), tk.word(erc20.SelBalanceOf, admin))
	assert.Equal(t, ether(70), tk.word(erc20.SelAllowance, admin, user1))

	_, err = tk.call(user1, erc20.SelTransferFrom, admin, user2, ether(71))
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "ERC20: insufficient allowance", rv.Reason)

	// Supply regulation.
	tk.addFacet(erc20.SupplyRegulator{}, apis.ZeroAddress, nil)
	tk.mustCall(admin, erc20.SelMint, user3, ether(1000))
	assert.Equal(t, ether(1000), tk.word(erc20.SelBalanceOf, user3))
	assert.Equal(t, ether(2_501_000), tk.word(erc20.SelTotalSupply))
	tk.mustCall(admin, erc20.SelBurn, user3, ether(500))
	assert.Equal(t, ether(500), tk.word(erc20.SelBalanceOf, user3))
	assert.Equal(t, ether(2_500_500), tk.word(erc20.SelTotalSupply))

	_, err = tk.call(owner, erc20.SelMint, owner, ether(1))
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "ERC20: caller is not the admin", rv.Reason)

	var ok bool
	require.NoError(t, abi.Decode(tk.mustCall(user1, loupe.SelSupportsInterface, erc20.InterfaceID), &ok))
	assert.True(t, ok)

	// Freeze upgrades.
	data, err := cutfacet.Calldata([]apis.FacetCut{{Action: apis.Remove, Selectors: []apis.Selector{cutfacet.SelDiamondCut}}}, apis.ZeroAddress, nil)
	require.NoError(t, err)
	_, err = tk.r.Call(context.Background(), apis.Message{From: owner, Data: data})
	require.NoError(t, err)
	_, err = tk.r.Call(context.Background(), apis.Message{From: owner, Data: data})
	assert.ErrorIs(t, err, apis.ErrNoRoute)

	// Token keeps working after the freeze.
	tk.mustCall(admin, erc20.SelTransfer, user2, ether(1))
}

func TestInit_RunsOnce(t *testing.T) {
	tk := newToken(t)
	initAddr, err := tk.b.Deploy(erc20.Init{})
	require.NoError(t, err)
	calldata, err := erc20.InitArgs{Name: "A", Symbol: "A", Decimals: 6, Admin: admin}.Calldata()
	require.NoError(t, err)
	tk.addFacet(erc20.Balances{}, initAddr, calldata)
	assert.True(t, tk.word(erc20.SelTotalSupply).IsZero())

	_, err = tk.b.Add(erc20.Constants{})
	require.NoError(t, err)
	data, err := cutfacet.Calldata(tk.b.Cuts(), initAddr, calldata)
	require.NoError(t, err)
	_, err = tk.r.Call(context.Background(), apis.Message{From: owner, Data: data})
	var rv *apis.Revert
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "ERC20 init: already initialized", rv.Reason)
}

func TestTransfer_Events(t *testing.T) {
	tk := newToken(t)
	initAddr, err := tk.b.Deploy(erc20.Init{})
	require.NoError(t, err)
	calldata, err := erc20.InitArgs{Name: "A", Symbol: "A", Decimals: 6, Admin: admin, Supply: apis.WordFromUint64(10)}.Calldata()
	require.NoError(t, err)
	tk.addFacet(erc20.Balances{}, initAddr, calldata)

	rcpt, err := tk.r.Call(context.Background(), apis.Message{From: admin, Data: abi.MustPack(erc20.SelTransfer, user1, apis.WordFromUint64(4))})
	require.NoError(t, err)
	require.Len(t, rcpt.Events, 1)
	assert.Equal(t, erc20.TransferEvent, rcpt.Events[0].Name)
	assert.Equal(t, erc20.Transfer{From: admin, To: user1, Value: apis.WordFromUint64(4)}, rcpt.Events[0].Payload)

	_, err = tk.call(admin, erc20.SelTransfer, apis.ZeroAddress, apis.WordFromUint64(1))
	var rv *apis.Revert
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "ERC20: transfer to the zero address", rv.Reason)
}
