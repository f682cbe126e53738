// SPDX-License-Identifier: Unlicense OR MIT

package gbm

import (
	"eliasnaur.com/virtgbm/fourcc"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Combination is a format allowed under a set of usages.
type Combination struct {
	Format   fourcc.Format
	Metadata Metadata
	Use      Use
}

// Combinations is the table of supported format combinations. It is
// filled by a backend during Init and only read afterwards.
type Combinations struct {
	entries []Combination
}

// Add appends a combination.
func (c *Combinations) Add(format fourcc.Format, meta Metadata, use Use) {
	c.entries = append(c.entries, Combination{Format: format, Metadata: meta, Use: use})
}

// Modify grants use to every existing combination of format with the
// given metadata. Formats not in the table are left out.
func (c *Combinations) Modify(format fourcc.Format, meta Metadata, use Use) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.Format == format && e.Metadata == meta {
			e.Use |= use
		}
	}
}

// Supported reports whether some combination of format allows every
// usage in use.
func (c *Combinations) Supported(format fourcc.Format, use Use) bool {
	for _, e := range c.entries {
		if e.Format == format && e.Use&use == use {
			return true
		}
	}
	return false
}

// Lookup returns the union of usages allowed for format.
func (c *Combinations) Lookup(format fourcc.Format) (Use, bool) {
	var use Use
	found := false
	for _, e := range c.entries {
		if e.Format == format {
			use |= e.Use
			found = true
		}
	}
	return use, found
}

// Formats returns the distinct formats of the table in ascending
// code order.
func (c *Combinations) Formats() []fourcc.Format {
	set := make(map[fourcc.Format]struct{})
	for _, e := range c.entries {
		set[e.Format] = struct{}{}
	}
	formats := maps.Keys(set)
	slices.Sort(formats)
	return formats
}

// All returns a copy of the table in insertion order.
func (c *Combinations) All() []Combination {
	return slices.Clone(c.entries)
}

func (c *Combinations) Len() int {
	return len(c.entries)
}
