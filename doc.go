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

// Package diamond implements a modular dispatch proxy: a single persistent
// router whose behavior is composed of independently deployed modules.
//
// Every inbound call carries a 4-byte selector. The router looks the
// selector up in its routing table and delegates the call to the owning
// module, preserving the original caller and value and executing against
// the router's own storage. The routing table is changed only through the
// diamondCut operation, which applies a batch of Add, Replace and Remove
// entries atomically and may run an initializer in the same step.
//
// Storage is a flat word-addressed space. Independent features keep their
// state in partitions rooted at the hash of a namespace string (see the
// partition package), so modules written separately never collide.
//
// A call either commits every storage write and event it produced or
// none of them:
//
//	h := host.New()
//	r, err := diamond.New(ctx, h, memory.New(), diamond.Args{Owner: owner}, cuts)
//	rcpt, err := r.Call(ctx, apis.Message{From: owner, Data: calldata})
package diamond
