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

package partition

import (
	"dirpx.dev/diamond/apis"
)

// Load reads field of r from st.
func (r Region) Load(st apis.Storage, field uint64) (apis.Word, error) {
	return st.Load(r.Slot(field))
}

// Store writes field of r to st.
func (r Region) Store(st apis.Storage, field uint64, v apis.Word) error {
	return st.Store(r.Slot(field), v)
}

// LoadAddress reads an address stored at field.
func (r Region) LoadAddress(st apis.Storage, field uint64) (apis.Address, error) {
	w, err := r.Load(st, field)
	if err != nil {
		return apis.ZeroAddress, err
	}
	return w.Address(), nil
}

// StoreAddress writes an address to field.
func (r Region) StoreAddress(st apis.Storage, field uint64, a apis.Address) error {
	return r.Store(st, field, apis.AddressWord(a))
}

// LoadString reads a string stored at field. Strings are kept as a length
// word followed by 32 byte chunks at ArraySlot(slot, i).
func (r Region) LoadString(st apis.Storage, field uint64) (string, error) {
	slot := r.Slot(field)
	lw, err := st.Load(slot)
	if err != nil {
		return "", err
	}
	n := lw.Uint64()
	buf := make([]byte, 0, n)
	for i := uint64(0); uint64(len(buf)) < n; i++ {
		chunk, err := st.Load(ArraySlot(slot, i))
		if err != nil {
			return "", err
		}
		rest := n - uint64(len(buf))
		if rest > uint64(len(chunk)) {
			rest = uint64(len(chunk))
		}
		buf = append(buf, chunk[:rest]...)
	}
	return string(buf), nil
}

// StoreString writes s at field, clearing chunks left over from a longer
// previous value.
func (r Region) StoreString(st apis.Storage, field uint64, s string) error {
	slot := r.Slot(field)
	old, err := st.Load(slot)
	if err != nil {
		return err
	}
	data := []byte(s)
	chunks := (uint64(len(data)) + 31) / 32
	for i := uint64(0); i < chunks; i++ {
		var w apis.Word
		copy(w[:], data[i*32:])
		if err := st.Store(ArraySlot(slot, i), w); err != nil {
			return err
		}
	}
	for i := chunks; i < (old.Uint64()+31)/32; i++ {
		if err := st.Store(ArraySlot(slot, i), apis.Word{}); err != nil {
			return err
		}
	}
	return st.Store(slot, apis.WordFromUint64(uint64(len(data))))
}
