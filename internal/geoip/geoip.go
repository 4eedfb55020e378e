// Package geoip provides best-effort country annotation for diagnostic
// output. It is never on the classify/schedule path: every failure mode
// here degrades to "no annotation", never to an error a caller must
// handle.
package geoip

import (
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Annotation is the subset of a MaxMind country record the CLI's
// inspect output cares about.
type Annotation struct {
	Country string
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// DB is an opened MaxMind country/city database.
type DB struct {
	reader *maxminddb.Reader
}

// Open opens the database at path. Callers that only want best-effort
// annotation and would otherwise ignore this error can use OpenOrNil.
func Open(path string) (*DB, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &DB{reader: reader}, nil
}

// OpenOrNil opens the database at path, returning a nil *DB on any
// error. Lookup on a nil *DB always misses, so callers can wire this
// in unconditionally without a separate "is geoip enabled" branch.
func OpenOrNil(path string) *DB {
	db, err := Open(path)
	if err != nil {
		return nil
	}
	return db
}

// Close releases the underlying database file.
func (d *DB) Close() error {
	if d == nil || d.reader == nil {
		return nil
	}
	return d.reader.Close()
}

// Lookup annotates ip, reporting ok=false if d is nil, ip is nil, the
// address has no entry, or the record carries no ISO country code.
func (d *DB) Lookup(ip net.IP) (Annotation, bool) {
	if d == nil || d.reader == nil || ip == nil {
		return Annotation{}, false
	}
	var rec countryRecord
	if err := d.reader.Lookup(ip, &rec); err != nil {
		return Annotation{}, false
	}
	if rec.Country.ISOCode == "" {
		return Annotation{}, false
	}
	return Annotation{Country: rec.Country.ISOCode}, true
}
