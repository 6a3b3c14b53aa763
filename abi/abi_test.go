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

package abi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/selector"
)

func TestPackUnpack_MixedArguments(t *testing.T) {
	sel := selector.Of("diamondCut((address,uint8,bytes4[])[],address,bytes)")
	cuts := []apis.FacetCut{{
		Module:    apis.Address{1},
		Action:    apis.Replace,
		Selectors: []apis.Selector{{0xaa, 0xbb, 0xcc, 0xdd}},
	}}
	init := apis.Address{9}
	data, err := abi.Pack(sel, cuts, init, []byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, sel, apis.SelectorOf(data))

	var (
		gotCuts []apis.FacetCut
		gotInit apis.Address
		gotData []byte
	)
	require.NoError(t, abi.Unpack(data, &gotCuts, &gotInit, &gotData))
	assert.Equal(t, cuts, gotCuts)
	assert.Equal(t, init, gotInit)
	assert.Equal(t, []byte{0x00}, gotData)
}

func TestUnpack_ShortCalldata(t *testing.T) {
	var a apis.Address
	err := abi.Unpack([]byte{0x01}, &a)
	assert.True(t, errors.Is(err, abi.ErrShortCalldata))
}

func TestUnpack_MissingArgument(t *testing.T) {
	data := abi.MustPack(selector.Of("transfer(address,uint256)"), apis.Address{1})
	var (
		to     apis.Address
		amount apis.Word
	)
	assert.Error(t, abi.Unpack(data, &to, &amount))
}

func TestEncodeDecode_Word(t *testing.T) {
	w := apis.WordFromUint64(2500000)
	ret, err := abi.Encode(w)
	require.NoError(t, err)
	var got apis.Word
	require.NoError(t, abi.Decode(ret, &got))
	assert.Equal(t, uint64(2500000), got.Uint64())
}

func TestMalformed_IsRevert(t *testing.T) {
	err := abi.Malformed(apis.Selector{1}, errors.New("boom"))
	assert.True(t, apis.IsRevert(err))
}
