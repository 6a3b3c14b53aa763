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

// Config carries read-only knobs for a router instance.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// MaxCallDepth bounds re-entrant nesting of calls into the router.
	// A top-level call runs at depth 0.
	MaxCallDepth int

	// VerifyFacetCode requires Add and Replace targets to have deployed
	// code at cut time.
	VerifyFacetCode bool
}
