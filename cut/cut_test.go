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

package cut_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/config"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/internal/frametest"
	"dirpx.dev/diamond/registry"
	"dirpx.dev/diamond/selector"
)

var (
	f1 = apis.Address{0xf1}
	f2 = apis.Address{0xf2}

	selA = selector.Of("a()")
	selB = selector.Of("b()")
)

func nop(apis.Frame, []byte) ([]byte, error) { return nil, nil }

func frame() *frametest.Frame {
	f := frametest.New(apis.Address{19: 1})
	f.Code[f1] = apis.ModuleFunc(nop)
	f.Code[f2] = apis.ModuleFunc(nop)
	return f
}

func TestCut_AppliesAndEmits(t *testing.T) {
	f := frame()
	cuts := []apis.FacetCut{
		{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA, selB}},
		{Module: f2, Action: apis.Replace, Selectors: []apis.Selector{selB}},
	}
	require.NoError(t, cut.Default().Cut(f, cuts, apis.ZeroAddress, nil))

	got, ok, err := registry.New(f.Storage()).Resolve(selB)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f2, got)

	require.Len(t, f.Events, 1)
	assert.Equal(t, cut.EventName, f.Events[0].Name)
	ev := f.Events[0].Payload.(apis.CutEvent)
	assert.Equal(t, cuts, ev.Cuts)

	// The event must not alias the caller's slices.
	cuts[0].Selectors[0] = selector.Of("mutated()")
	assert.Equal(t, selA, ev.Cuts[0].Selectors[0])
}

func TestCut_Errors(t *testing.T) {
	cases := []struct {
		name  string
		cuts  []apis.FacetCut
		init  apis.Address
		want  error
		index int
	}{
		{"empty batch", nil, apis.ZeroAddress, apis.ErrEmptyBatch, -1},
		{"empty entry", []apis.FacetCut{{Module: f1, Action: apis.Add}}, apis.ZeroAddress, apis.ErrEmptyBatch, 0},
		{"no code", []apis.FacetCut{{Module: apis.Address{0xee}, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, apis.ErrNoCode, 0},
		{"conflict second", []apis.FacetCut{
			{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}},
			{Module: f2, Action: apis.Add, Selectors: []apis.Selector{selA}},
		}, apis.ZeroAddress, apis.ErrRouteConflict, 1},
		{"init without code", []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.Address{0xee}, apis.ErrNoCode, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := cut.Default().Cut(frame(), tc.cuts, tc.init, nil)
			require.ErrorIs(t, err, tc.want)
			var ce *apis.CutError
			if tc.index < 0 {
				assert.False(t, errors.As(err, &ce), "unexpected CutError %v", err)
				return
			}
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.index, ce.Index)
		})
	}
}

func TestCut_SkipsCodeCheckWhenDisabled(t *testing.T) {
	c := cut.New(config.NewConfig(config.WithVerifyFacetCode(false)))
	err := c.Cut(frame(), []apis.FacetCut{{Module: apis.Address{0xee}, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil)
	assert.NoError(t, err)
}

func TestCut_Initializer(t *testing.T) {
	f := frame()
	var got []byte
	initAddr := apis.Address{0x1a}
	f.Code[initAddr] = apis.ModuleFunc(func(_ apis.Frame, input []byte) ([]byte, error) {
		got = input
		return nil, nil
	})
	cuts := []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}
	require.NoError(t, cut.Default().Cut(f, cuts, initAddr, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, got)

	f = frame()
	f.Code[initAddr] = apis.ModuleFunc(func(apis.Frame, []byte) ([]byte, error) {
		return nil, apis.Revertf("nope")
	})
	err := cut.Default().Cut(f, cuts, initAddr, nil)
	assert.True(t, apis.IsRevert(err))
}

func TestCut_CustomTables(t *testing.T) {
	var opened int
	c := cut.New(config.DefaultConfig(), cut.WithTables(func(st apis.Storage) apis.RoutingTable {
		opened++
		return registry.New(st)
	}))
	require.NoError(t, c.Cut(frame(), []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil))
	assert.Equal(t, 1, opened)
}
