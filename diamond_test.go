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

package diamond_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/diamond"
	"dirpx.dev/diamond/abi"
	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/builder"
	"dirpx.dev/diamond/config"
	"dirpx.dev/diamond/cut"
	"dirpx.dev/diamond/facets/cutfacet"
	"dirpx.dev/diamond/facets/loupe"
	"dirpx.dev/diamond/facets/ownership"
	"dirpx.dev/diamond/host"
	"dirpx.dev/diamond/partition"
	"dirpx.dev/diamond/registry"
	"dirpx.dev/diamond/selector"
	"dirpx.dev/diamond/storage"
	"dirpx.dev/diamond/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	owner    = apis.Address{19: 0x01}
	stranger = apis.Address{19: 0x02}

	selA   = selector.Of("a()")
	selB   = selector.Of("b()")
	selC   = selector.Of("c()")
	selD   = selector.Of("d()")
	selInc = selector.Of("increment()")
	selGet = selector.Of("counter()")
	selWho = selector.Of("whoami()")
	selBad = selector.Of("fail()")
	selRe  = selector.Of("reenter(bytes)")
	selEat = selector.Of("swallow(bytes)")
)

var counter = partition.For("diamond.test.counter")

// tagged answers every selector with its tag, the caller and the value.
func tagged(tag string) apis.Module {
	return apis.ModuleFunc(func(f apis.Frame, _ []byte) ([]byte, error) {
		return abi.Encode(tag, f.Caller(), f.Value())
	})
}

// testFacet exercises storage, failures and re-entrancy.
type testFacet struct{}

func (testFacet) Selectors() []apis.Selector {
	return []apis.Selector{selInc, selGet, selWho, selBad, selRe, selEat}
}

func (testFacet) Invoke(f apis.Frame, input []byte) ([]byte, error) {
	switch sel := apis.SelectorOf(input); sel {
	case selInc:
		w, err := counter.Load(f.Storage(), 0)
		if err != nil {
			return nil, err
		}
		next := w.Add(1)
		if err := counter.Store(f.Storage(), 0, next); err != nil {
			return nil, err
		}
		return abi.Encode(next.Uint64())
	case selGet:
		w, err := counter.Load(f.Storage(), 0)
		if err != nil {
			return nil, err
		}
		return abi.Encode(w.Uint64())
	case selWho:
		return abi.Encode(f.Caller(), f.Depth())
	case selBad:
		if err := counter.Store(f.Storage(), 1, apis.WordFromUint64(99)); err != nil {
			return nil, err
		}
		return nil, apis.Revertf("test: boom")
	case selRe, selEat:
		var inner []byte
		if err := abi.Unpack(input, &inner); err != nil {
			return nil, abi.Malformed(sel, err)
		}
		if err := counter.Store(f.Storage(), 2, apis.WordFromUint64(7)); err != nil {
			return nil, err
		}
		ret, err := f.Call(inner)
		if sel == selEat {
			return nil, nil
		}
		return ret, err
	default:
		return nil, apis.Revertf("test: unknown selector %s", sel)
	}
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	host    *host.Host
	builder *builder.Builder
	backend *memory.Backend
	router  *diamond.Router
}

// newFixture creates a router with the service facets, the test facet and
// the standard initializer.
func newFixture(t *testing.T, opts ...diamond.Option) *fixture {
	t.Helper()
	fx := &fixture{t: t, ctx: context.Background(), host: host.New(), backend: memory.New()}
	fx.builder = builder.New(fx.host)
	for _, m := range []apis.Module{cutfacet.New(nil), loupe.New(), ownership.New(), testFacet{}} {
		_, err := fx.builder.Add(m)
		require.NoError(t, err)
	}
	init, err := fx.builder.Deploy(loupe.Init{})
	require.NoError(t, err)

	fx.router, err = diamond.New(fx.ctx, fx.host, fx.backend,
		diamond.Args{Owner: owner, Init: init, InitCalldata: abi.MustPack(loupe.SelInit)},
		fx.builder.Cuts(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fx.router.Close() })
	return fx
}

func (fx *fixture) call(from apis.Address, data []byte) (*apis.Receipt, error) {
	return fx.router.Call(fx.ctx, apis.Message{From: from, Data: data})
}

func (fx *fixture) mustCall(from apis.Address, sel apis.Selector, args ...any) []byte {
	fx.t.Helper()
	rcpt, err := fx.call(from, abi.MustPack(sel, args...))
	require.NoError(fx.t, err)
	return rcpt.Return
}

func (fx *fixture) cut(from apis.Address, cuts []apis.FacetCut, init apis.Address, calldata []byte) error {
	data, err := cutfacet.Calldata(cuts, init, calldata)
	require.NoError(fx.t, err)
	_, err = fx.call(from, data)
	return err
}

func (fx *fixture) snapshot() map[apis.Word]apis.Word {
	fx.t.Helper()
	dump, err := fx.backend.Dump(fx.ctx)
	require.NoError(fx.t, err)
	return dump
}

func (fx *fixture) facetAddress(sel apis.Selector) apis.Address {
	fx.t.Helper()
	var addr apis.Address
	require.NoError(fx.t, abi.Decode(fx.mustCall(stranger, loupe.SelFacetAddress, sel), &addr))
	return addr
}

func (fx *fixture) selectorsOf(module apis.Address) []apis.Selector {
	fx.t.Helper()
	var sels []apis.Selector
	require.NoError(fx.t, abi.Decode(fx.mustCall(stranger, loupe.SelFacetFunctionSelectors, module), &sels))
	return sels
}

func (fx *fixture) deploy(m apis.Module) apis.Address {
	fx.t.Helper()
	addr, err := fx.host.Deploy(m)
	require.NoError(fx.t, err)
	return addr
}

func TestNew_ScenarioA(t *testing.T) {
	ctx := context.Background()
	h, backend := host.New(), memory.New()
	f1, err := h.Deploy(tagged("f1"))
	require.NoError(t, err)
	f2, err := h.Deploy(tagged("f2"))
	require.NoError(t, err)

	r, err := diamond.New(ctx, h, backend, diamond.Args{Owner: owner}, []apis.FacetCut{
		{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA, selB}},
		{Module: f2, Action: apis.Add, Selectors: []apis.Selector{selC}},
	})
	require.NoError(t, err)
	defer r.Close()

	tbl := registry.New(storage.Begin(ctx, backend))
	got, ok, err := tbl.Resolve(selA)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f1, got)
	mods, err := tbl.Modules()
	require.NoError(t, err)
	assert.ElementsMatch(t, []apis.Address{f1, f2}, mods)

	rcpt, err := r.Call(ctx, apis.Message{From: stranger, Value: apis.WordFromUint64(5), Data: selC[:]})
	require.NoError(t, err)
	var (
		tag    string
		caller apis.Address
		value  apis.Word
	)
	require.NoError(t, abi.Decode(rcpt.Return, &tag, &caller, &value))
	assert.Equal(t, "f2", tag)
	assert.Equal(t, stranger, caller, "caller must be preserved")
	assert.Equal(t, apis.WordFromUint64(5), value, "value must be preserved")
}

func TestNew_LoupeReflectsBootstrap(t *testing.T) {
	fx := newFixture(t)

	var mods []apis.Address
	require.NoError(t, abi.Decode(fx.mustCall(stranger, loupe.SelFacetAddresses), &mods))
	var want []apis.Address
	for _, label := range []string{"DiamondCutFacet", "DiamondLoupeFacet", "OwnershipFacet", "diamond_test.testFacet"} {
		addr, ok := fx.builder.Address(label)
		require.True(t, ok, label)
		want = append(want, addr)
	}
	assert.Equal(t, want, mods)

	cutAddr, _ := fx.builder.Address("DiamondCutFacet")
	assert.Equal(t, "0x1f931c1c", cutfacet.SelDiamondCut.String())
	assert.Equal(t, cutAddr, fx.facetAddress(cutfacet.SelDiamondCut))
	assert.ElementsMatch(t, []apis.Selector{cutfacet.SelDiamondCut}, fx.selectorsOf(cutAddr))

	for _, id := range []apis.Selector{loupe.ERC165ID, loupe.LoupeID, loupe.CutID, loupe.ERC173ID} {
		var ok bool
		require.NoError(t, abi.Decode(fx.mustCall(stranger, loupe.SelSupportsInterface, id), &ok))
		assert.True(t, ok, "supportsInterface(%s)", id)
	}

	var facets []apis.Facet
	require.NoError(t, abi.Decode(fx.mustCall(stranger, loupe.SelFacets), &facets))
	assert.Len(t, facets, 4)
}

func TestNew_FailsAtomically(t *testing.T) {
	ctx := context.Background()
	h, backend := host.New(), memory.New()
	f1, err := h.Deploy(tagged("f1"))
	require.NoError(t, err)

	_, err = diamond.New(ctx, h, backend, diamond.Args{Owner: owner}, []apis.FacetCut{
		{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}},
		{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}},
	})
	var ce *apis.CutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
	assert.ErrorIs(t, err, apis.ErrRouteConflict)

	dump, err := backend.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, dump)

	_, err = diamond.New(ctx, h, backend, diamond.Args{Owner: owner}, nil)
	assert.ErrorIs(t, err, apis.ErrEmptyBatch)
	_, err = diamond.New(ctx, nil, backend, diamond.Args{}, nil)
	assert.ErrorIs(t, err, diamond.ErrNilHost)
}

func TestCut_ScenarioB_Replace(t *testing.T) {
	fx := newFixture(t)
	f1 := fx.deploy(tagged("f1"))
	f3 := fx.deploy(tagged("f3"))

	require.NoError(t, fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA, selB}}}, apis.ZeroAddress, nil))
	require.NoError(t, fx.cut(owner, []apis.FacetCut{{Module: f3, Action: apis.Replace, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil))

	assert.Equal(t, f3, fx.facetAddress(selA))
	assert.Equal(t, []apis.Selector{selB}, fx.selectorsOf(f1))
	assert.Equal(t, []apis.Selector{selA}, fx.selectorsOf(f3))

	var tag string
	require.NoError(t, abi.Decode(fx.mustCall(stranger, selA), &tag))
	assert.Equal(t, "f3", tag)
}

func TestCut_ScenarioC_BatchIsAtomic(t *testing.T) {
	fx := newFixture(t)
	f3 := fx.deploy(tagged("f3"))
	f4 := fx.deploy(tagged("f4"))
	before := fx.snapshot()
	logs := len(fx.router.Logs())

	err := fx.cut(owner, []apis.FacetCut{
		{Module: f3, Action: apis.Add, Selectors: []apis.Selector{selD}},
		{Module: f4, Action: apis.Add, Selectors: []apis.Selector{selD}},
	}, apis.ZeroAddress, nil)
	var ce *apis.CutError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
	assert.Equal(t, selD, ce.Selector)
	assert.ErrorIs(t, err, apis.ErrRouteConflict)

	if diff := cmp.Diff(before, fx.snapshot()); diff != "" {
		t.Fatalf("storage changed after failed cut (-before +after):\n%s", diff)
	}
	assert.Len(t, fx.router.Logs(), logs, "failed cut must not emit events")
	assert.True(t, fx.facetAddress(selD).IsZero())
}

func TestCut_ScenarioD_TransferThenCut(t *testing.T) {
	fx := newFixture(t)
	z := apis.Address{19: 0x5a}
	f1 := fx.deploy(tagged("f1"))

	fx.mustCall(owner, ownership.SelTransferOwnership, z)
	var got apis.Address
	require.NoError(t, abi.Decode(fx.mustCall(stranger, ownership.SelOwner), &got))
	assert.Equal(t, z, got)

	err := fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil)
	assert.ErrorIs(t, err, apis.ErrNotOwner)

	require.NoError(t, fx.cut(z, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil))
}

func TestTransferOwnership_NonOwnerFails(t *testing.T) {
	fx := newFixture(t)
	before := fx.snapshot()
	_, err := fx.call(stranger, abi.MustPack(ownership.SelTransferOwnership, stranger))
	assert.ErrorIs(t, err, apis.ErrNotOwner)
	assert.Empty(t, cmp.Diff(before, fx.snapshot()))

	// owner -> admin -> owner round trip.
	admin := apis.Address{19: 0xad}
	fx.mustCall(owner, ownership.SelTransferOwnership, admin)
	fx.mustCall(admin, ownership.SelTransferOwnership, owner)
	var got apis.Address
	require.NoError(t, abi.Decode(fx.mustCall(stranger, ownership.SelOwner), &got))
	assert.Equal(t, owner, got)
}

func TestCall_NoRouteLeavesStateUnchanged(t *testing.T) {
	fx := newFixture(t)
	before := fx.snapshot()

	_, err := fx.call(owner, selA[:])
	var re *apis.RouteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, selA, re.Selector)
	assert.ErrorIs(t, err, apis.ErrNoRoute)

	_, err = fx.call(owner, []byte{0x01})
	assert.ErrorIs(t, err, apis.ErrNoRoute)

	assert.Empty(t, cmp.Diff(before, fx.snapshot()))
}

func TestCut_RemovingCutSelectorMakesImmutable(t *testing.T) {
	fx := newFixture(t)
	f1 := fx.deploy(tagged("f1"))

	require.NoError(t, fx.cut(owner, []apis.FacetCut{
		{Action: apis.Remove, Selectors: []apis.Selector{cutfacet.SelDiamondCut}},
	}, apis.ZeroAddress, nil))
	assert.True(t, fx.facetAddress(cutfacet.SelDiamondCut).IsZero())

	err := fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil)
	assert.ErrorIs(t, err, apis.ErrNoRoute)

	// Other facets keep working.
	fx.mustCall(stranger, selInc)
}

func TestCut_InitializerRunsAndFailureRollsBack(t *testing.T) {
	fx := newFixture(t)
	f1 := fx.deploy(tagged("f1"))
	bad := fx.deploy(apis.ModuleFunc(func(f apis.Frame, _ []byte) ([]byte, error) {
		if err := counter.Store(f.Storage(), 5, apis.WordFromUint64(1)); err != nil {
			return nil, err
		}
		return nil, apis.Revertf("init: refused")
	}))
	before := fx.snapshot()

	err := fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, bad, []byte{0xde, 0xad})
	require.Error(t, err)
	assert.True(t, apis.IsRevert(err))
	assert.Empty(t, cmp.Diff(before, fx.snapshot()))
	assert.True(t, fx.facetAddress(selA).IsZero())

	err = fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.Address{19: 0xee}, nil)
	assert.ErrorIs(t, err, apis.ErrNoCode)

	var seen apis.Address
	good := fx.deploy(apis.ModuleFunc(func(f apis.Frame, _ []byte) ([]byte, error) {
		seen = f.Caller()
		return nil, counter.Store(f.Storage(), 5, apis.WordFromUint64(1))
	}))
	require.NoError(t, fx.cut(owner, []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, good, nil))
	assert.Equal(t, owner, seen, "initializer runs with the cut caller")
	assert.Equal(t, apis.WordFromUint64(1), fx.snapshot()[counter.Slot(5)])
}

func TestCut_NoCodeRejected(t *testing.T) {
	fx := newFixture(t)
	err := fx.cut(owner, []apis.FacetCut{{Module: apis.Address{19: 0xee}, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil)
	assert.ErrorIs(t, err, apis.ErrNoCode)
}

func TestCall_CommitsStorage(t *testing.T) {
	fx := newFixture(t)
	fx.mustCall(stranger, selInc)
	fx.mustCall(stranger, selInc)
	var n uint64
	require.NoError(t, abi.Decode(fx.mustCall(stranger, selGet), &n))
	assert.EqualValues(t, 2, n)
}

func TestCall_RevertDiscardsWrites(t *testing.T) {
	fx := newFixture(t)
	before := fx.snapshot()
	_, err := fx.call(stranger, selBad[:])
	var rv *apis.Revert
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "test: boom", rv.Reason)
	assert.Empty(t, cmp.Diff(before, fx.snapshot()))
}

func TestCall_ReentrantCallerIsRouter(t *testing.T) {
	fx := newFixture(t)
	rcpt, err := fx.call(stranger, abi.MustPack(selRe, selWho[:]))
	require.NoError(t, err)
	var (
		caller apis.Address
		depth  int
	)
	require.NoError(t, abi.Decode(rcpt.Return, &caller, &depth))
	assert.Equal(t, fx.router.Address(), caller)
	assert.Equal(t, 1, depth)
}

func TestCall_SwallowedNestedFailureStillReverts(t *testing.T) {
	fx := newFixture(t)
	before := fx.snapshot()
	_, err := fx.call(stranger, abi.MustPack(selEat, selBad[:]))
	var rv *apis.Revert
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, "test: boom", rv.Reason, "deepest failure is reported")
	assert.Empty(t, cmp.Diff(before, fx.snapshot()))
}

func TestCall_DepthLimit(t *testing.T) {
	fx := newFixture(t, diamond.WithConfig(config.NewConfig(config.WithMaxCallDepth(3))))
	data := selWho[:]
	for i := 0; i < 3; i++ {
		data = abi.MustPack(selRe, data)
	}
	_, err := fx.call(stranger, data)
	require.NoError(t, err)

	_, err = fx.call(stranger, abi.MustPack(selRe, data))
	assert.ErrorIs(t, err, apis.ErrCallDepth)
}

func TestCall_ReentrantCutRequiresRouterOwnership(t *testing.T) {
	fx := newFixture(t)
	f1 := fx.deploy(tagged("f1"))
	inner, err := cutfacet.Calldata([]apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}, apis.ZeroAddress, nil)
	require.NoError(t, err)

	_, err = fx.call(owner, abi.MustPack(selRe, inner))
	assert.ErrorIs(t, err, apis.ErrNotOwner)

	fx.mustCall(owner, ownership.SelTransferOwnership, fx.router.Address())
	_, err = fx.call(stranger, abi.MustPack(selRe, inner))
	require.NoError(t, err)
	assert.Equal(t, f1, fx.facetAddress(selA))
}

func TestEvents_CommittedOnly(t *testing.T) {
	fx := newFixture(t)
	logs := fx.router.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, ownership.EventName, logs[0].Name)
	assert.Equal(t, apis.OwnershipTransferred{Next: owner}, logs[0].Payload)
	assert.Equal(t, cut.EventName, logs[1].Name)
	assert.Equal(t, logs[0].TxID, logs[1].TxID)

	f1 := fx.deploy(tagged("f1"))
	cuts := []apis.FacetCut{{Module: f1, Action: apis.Add, Selectors: []apis.Selector{selA}}}
	data, err := cutfacet.Calldata(cuts, apis.ZeroAddress, nil)
	require.NoError(t, err)
	rcpt, err := fx.call(owner, data)
	require.NoError(t, err)
	require.Len(t, rcpt.Events, 1)
	assert.Equal(t, rcpt.ID, rcpt.Events[0].TxID)
	ev, ok := rcpt.Events[0].Payload.(apis.CutEvent)
	require.True(t, ok)
	assert.Equal(t, cuts, ev.Cuts)
	assert.Len(t, fx.router.Logs(), 3)

	_ = fx.cut(stranger, cuts, apis.ZeroAddress, nil)
	assert.Len(t, fx.router.Logs(), 3)
}

func TestCall_ConcurrentCallersAreSerialized(t *testing.T) {
	fx := newFixture(t)
	const workers, calls = 8, 25

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < calls; i++ {
				if _, err := fx.call(stranger, selInc[:]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var n uint64
	require.NoError(t, abi.Decode(fx.mustCall(stranger, selGet), &n))
	assert.EqualValues(t, workers*calls, n)
}

func TestCall_CanceledContext(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fx.router.Call(ctx, apis.Message{From: stranger, Data: selInc[:]})
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
}
