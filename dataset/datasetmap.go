// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import "github.com/posixhio/hio/internal/manifest"

// peerSegmentMap is the §4.H "dataset map": the merged view of every
// peer's segments for an OPTIMIZED SHARED dataset, consulted by
// internal/translate on a read miss against the local element's own
// segment list. It implements translate.SegmentLookup.
type peerSegmentMap struct {
	byElement map[string][]manifest.Segment
}

func newPeerSegmentMap(m *manifest.Manifest) *peerSegmentMap {
	pm := &peerSegmentMap{byElement: make(map[string][]manifest.Segment)}
	if m == nil {
		return pm
	}
	for _, el := range m.Elements {
		pm.byElement[el.Name] = append(pm.byElement[el.Name], el.Segments...)
	}
	return pm
}

// Lookup implements translate.SegmentLookup: the first segment covering
// logicalOffset for element, if any.
func (pm *peerSegmentMap) Lookup(element string, logicalOffset int64) (manifest.Segment, bool) {
	for _, s := range pm.byElement[element] {
		if logicalOffset >= s.LogicalOffset && logicalOffset < s.LogicalOffset+s.Length {
			return s, true
		}
	}
	return manifest.Segment{}, false
}
