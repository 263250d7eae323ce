// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package event

// Payload is a flat, ordered key/value bag. Values are strings, int64s or
// string lists; insertion order is preserved and keys are unique (a second
// put overwrites in place).
type Payload struct {
	entries []entry
}

type entry struct {
	key  string
	str  *string
	i64  *int64
	list []string
}

// NewPayload returns an empty payload.
func NewPayload() *Payload {
	return &Payload{}
}

func (p *Payload) find(key string) *entry {
	for i := range p.entries {
		if p.entries[i].key == key {
			return &p.entries[i]
		}
	}
	return nil
}

func (p *Payload) upsert(key string) *entry {
	if e := p.find(key); e != nil {
		*e = entry{key: key}
		return e
	}
	p.entries = append(p.entries, entry{key: key})
	return &p.entries[len(p.entries)-1]
}

// PutString sets key to a string value.
func (p *Payload) PutString(key, value string) {
	p.upsert(key).str = &value
}

// PutInt64 sets key to an integer value.
func (p *Payload) PutInt64(key string, value int64) {
	p.upsert(key).i64 = &value
}

// PutStringList sets key to a list value.
func (p *Payload) PutStringList(key string, values []string) {
	p.upsert(key).list = append([]string(nil), values...)
}

// AppendString appends one element to the list stored under key, creating
// the list if absent.
func (p *Payload) AppendString(key, value string) {
	e := p.find(key)
	if e == nil {
		p.entries = append(p.entries, entry{key: key})
		e = &p.entries[len(p.entries)-1]
	}
	e.list = append(e.list, value)
}

// GetString returns the string stored under key.
func (p *Payload) GetString(key string) (string, bool) {
	if e := p.find(key); e != nil && e.str != nil {
		return *e.str, true
	}
	return "", false
}

// GetInt64 returns the integer stored under key.
func (p *Payload) GetInt64(key string) (int64, bool) {
	if e := p.find(key); e != nil && e.i64 != nil {
		return *e.i64, true
	}
	return 0, false
}

// GetStringList returns the list stored under key.
func (p *Payload) GetStringList(key string) ([]string, bool) {
	if e := p.find(key); e != nil && e.list != nil {
		return e.list, true
	}
	return nil, false
}

// Keys returns the payload keys in insertion order.
func (p *Payload) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		keys = append(keys, e.key)
	}
	return keys
}
