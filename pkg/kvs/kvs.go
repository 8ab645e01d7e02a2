// Package kvs is a key-value store on top of a recurve connection. Each key
// becomes a text target holding one string arrow.
package kvs

import (
	"encoding"
	"fmt"

	"github.com/huynhanx03/recurvedb/pkg/hash"
	"github.com/huynhanx03/recurvedb/pkg/recurve"
	"github.com/pkg/errors"
)

// ValueRing is the ring every value is stored at.
var ValueRing = recurve.Ring{Name: "value", Aspect: "recurve::kv"}

// ObjectID returns the target a key is stored under.
func ObjectID[K hash.Key](key K) recurve.Target {
	return recurve.TextTarget(fmt.Sprintf("key-%016x", hash.Sum64(key)))
}

// Store writes values by key.
type Store[K hash.Key] struct {
	conn *recurve.Recurve
}

// Open connects to the store folder/name.
func Open[K hash.Key](name, folder string, cfg recurve.Config) (*Store[K], error) {
	conn, err := recurve.Connect(name, folder, cfg)
	if err != nil {
		return nil, err
	}
	return &Store[K]{conn: conn}, nil
}

// Write stores the text form of value under key.
func (s *Store[K]) Write(key K, value encoding.TextMarshaler) (*Catalog[K], error) {
	text, err := value.MarshalText()
	if err != nil {
		return nil, errors.Wrap(err, "kvs: marshal value")
	}
	return s.WriteString(key, string(text))
}

// WriteString stores value under key.
func (s *Store[K]) WriteString(key K, value string) (*Catalog[K], error) {
	b, err := s.conn.Release(recurve.Volley{{
		Target: ObjectID(key),
		Ring:   ValueRing,
		Arrow:  recurve.StringArrow(value),
	}})
	if err != nil {
		return nil, err
	}
	return &Catalog[K]{bundle: b}, nil
}

// Catalog returns a read view of everything written so far.
func (s *Store[K]) Catalog() (*Catalog[K], error) {
	b, err := s.conn.Latest()
	if err != nil {
		return nil, err
	}
	return &Catalog[K]{bundle: b}, nil
}

func (s *Store[K]) Close() error { return s.conn.Close() }

// Catalog is an immutable read view of a Store.
type Catalog[K hash.Key] struct {
	bundle *recurve.Bundle
}

// ReadString returns the value stored under key.
func (c *Catalog[K]) ReadString(key K) (string, bool, error) {
	a, ok, err := c.bundle.Arrow(ObjectID(key), ValueRing)
	if err != nil || !ok {
		return "", false, err
	}
	return a.String(), true, nil
}

// Read decodes the value stored under key into dst.
func (c *Catalog[K]) Read(key K, dst encoding.TextUnmarshaler) (bool, error) {
	s, ok, err := c.ReadString(key)
	if err != nil || !ok {
		return false, err
	}
	if err := dst.UnmarshalText([]byte(s)); err != nil {
		return false, errors.Wrap(err, "kvs: unmarshal value")
	}
	return true, nil
}

// ReadOr returns the value under key, or fallback when it is missing.
func (c *Catalog[K]) ReadOr(key K, fallback string) (string, error) {
	s, ok, err := c.ReadString(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return fallback, nil
	}
	return s, nil
}
