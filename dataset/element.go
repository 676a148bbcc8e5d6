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

import (
	"os"

	"github.com/posixhio/hio/cfg"
	"github.com/posixhio/hio/internal/hioerr"
	"github.com/posixhio/hio/internal/layout"
	"github.com/posixhio/hio/internal/translate"
)

// Element returns the §3 element identified by name within this rank's
// view of the dataset (the rank tag of §3's "(element_name, rank)"
// identity is always this process's own rank — a rank never addresses
// another rank's UNIQUE-mode element directly), creating it — and, in
// BASIC mode, opening its dedicated file handle — on first access.
func (d *Dataset) Element(name string) (*translate.Element, error) {
	d.elMu.Lock()
	defer d.elMu.Unlock()

	if el, ok := d.elements[name]; ok {
		return el, nil
	}

	rank := d.group.Rank()
	el := &translate.Element{Name: name, Rank: rank}
	if d.ownManifest != nil {
		for _, me := range d.ownManifest.Elements {
			if me.Name == name && (d.mode != Unique || me.Rank == rank) {
				el.Segments = append(el.Segments, me.Segments...)
				break
			}
		}
	}
	d.elements[name] = el

	if d.fileMode == cfg.Basic {
		if err := d.openBasicHandle(el); err != nil {
			delete(d.elements, name)
			return nil, err
		}
	}
	return el, nil
}

func (d *Dataset) openBasicHandle(el *translate.Element) error {
	var path string
	if d.mode == Unique {
		path = layout.ElementDataPathUnique(d.base, el.Name, el.Rank)
	} else {
		path = layout.ElementDataPathShared(d.base, el.Name)
	}

	flags := os.O_RDONLY
	if d.flags.Has(Write) {
		flags = os.O_CREAT | os.O_WRONLY
	}
	f, err := d.fs.OpenFile(path, flags, os.FileMode(d.mkdir))
	if err != nil {
		return hioerr.IO("dataset.element.open_basic_handle", err)
	}
	d.basicHandles[el.Name] = f
	return nil
}
