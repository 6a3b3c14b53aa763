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

package apis

import "github.com/google/uuid"

// Message is an inbound invocation of the router.
type Message struct {
	// From is the caller identity.
	From Address
	// Value is attached to the call and visible to the resolved module.
	Value Word
	// Data is the selector followed by an opaque payload.
	Data []byte
}

// Receipt describes a committed call.
type Receipt struct {
	// ID uniquely identifies the call in logs and the audit trail.
	ID uuid.UUID
	// Return is the data returned by the resolved module.
	Return []byte
	// Events lists the events emitted by the call, in order.
	Events []Event
}

// Event is an audit record emitted by a committed call.
type Event struct {
	// Name is the event signature name, e.g. "DiamondCut".
	Name string
	// TxID is the receipt ID of the call that emitted the event.
	TxID uuid.UUID
	// Payload carries the event fields.
	Payload any
}

// CutEvent is the payload of a "DiamondCut" event.
type CutEvent struct {
	Cuts     []FacetCut
	Init     Address
	Calldata []byte
}

// OwnershipTransferred is the payload of an "OwnershipTransferred" event.
type OwnershipTransferred struct {
	Previous Address
	Next     Address
}
