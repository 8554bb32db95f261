/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lookup reads values from SDK configuration backends and layers
// service settings over a connection profile.
package lookup

import (
	"strings"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

//New providers lookup wrapper around given backend
func New(coreBackends ...core.ConfigBackend) *ConfigLookup {
	return &ConfigLookup{backends: coreBackends}
}

//ConfigLookup is wrapper for core.ConfigBackend which performs key lookup and unmarshalling
type ConfigLookup struct {
	backends []core.ConfigBackend
}

//Lookup returns value for given key
func (c *ConfigLookup) Lookup(key string) (interface{}, bool) {
	//loop through each backend to find the value by key, fallback to next one if not found
	for _, backend := range c.backends {
		if backend == nil {
			continue
		}
		val, ok := backend.Lookup(key)
		if ok {
			return val, true
		}
	}
	return nil, false
}

//GetString returns string value for given key
func (c *ConfigLookup) GetString(key string) string {
	value, ok := c.Lookup(key)
	if !ok {
		return ""
	}
	return cast.ToString(value)
}

//GetDuration returns time.Duration value for given key
func (c *ConfigLookup) GetDuration(key string) time.Duration {
	value, ok := c.Lookup(key)
	if !ok {
		return 0
	}
	return cast.ToDuration(value)
}

//UnmarshalKey unmarshals value for given key to rawval type
func (c *ConfigLookup) UnmarshalKey(key string, rawVal interface{}) error {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     rawVal,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(value)
}

// MapBackend is a core.ConfigBackend over a flat map of dotted keys
type MapBackend map[string]interface{}

// Lookup returns the value stored under key
func (m MapBackend) Lookup(key string) (interface{}, bool) {
	v, ok := m[key]
	return v, ok
}

// Overlay is a core.ConfigBackend that replaces nested values of the
// sections found in its base backends. The SDK reads whole sections
// ("client", "peers"), so an override of client.credentialStore.path is
// merged into a copy of the base "client" section.
type Overlay struct {
	base      *ConfigLookup
	overrides MapBackend
}

// NewOverlay layers overrides (dotted keys) over the given backends. Empty
// string overrides are ignored.
func NewOverlay(overrides MapBackend, base ...core.ConfigBackend) *Overlay {
	o := &Overlay{base: New(base...), overrides: make(MapBackend)}
	for k, v := range overrides {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		o.overrides[k] = v
	}
	return o
}

// Lookup returns the base value for key with every override below key applied
func (o *Overlay) Lookup(key string) (interface{}, bool) {
	if v, ok := o.overrides.Lookup(key); ok {
		return v, true
	}

	base, found := o.base.Lookup(key)

	prefix := key + "."
	var merged map[string]interface{}
	for k, v := range o.overrides {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if merged == nil {
			merged = copyMap(base)
		}
		setPath(merged, strings.Split(strings.TrimPrefix(k, prefix), "."), v)
	}

	if merged == nil {
		return base, found
	}
	return merged, true
}

func copyMap(v interface{}) map[string]interface{} {
	src := cast.ToStringMap(v)
	dst := make(map[string]interface{}, len(src))
	for k, val := range src {
		dst[k] = val
	}
	return dst
}

// setPath sets value at path, copying each intermediate section. Existing
// keys match case-insensitively since viper lowercases them.
func setPath(m map[string]interface{}, path []string, value interface{}) {
	key := matchKey(m, path[0])
	if len(path) == 1 {
		m[key] = value
		return
	}
	child := copyMap(m[key])
	setPath(child, path[1:], value)
	m[key] = child
}

func matchKey(m map[string]interface{}, key string) string {
	for k := range m {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}
