// Package config parses the line-oriented jnamed.conf-style
// configuration file named in §6 and builds the explicit Config struct
// cmd/dnsd threads into cache.Cache, zone.Zone, tsig.Provider and
// responder.Responder. Replaces the teacher's implicit process-wide
// options with construction-time dependency injection, per Design Note
// "no module-level mutable state".
package config

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
)

// PrimaryZone is a `primary <origin> <file>` directive: an
// authoritative zone loaded from a local master file.
type PrimaryZone struct {
	Origin name.Name
	File   string
}

// SecondaryZone is a `secondary <origin> <remote>` directive: a zone
// loaded via AXFR from remote at startup (the AXFR client itself lives
// in cmd/dnsd, outside the core per §1).
type SecondaryZone struct {
	Origin name.Name
	Remote string
}

// Key is a `key [<alg>] <name> <secret>` directive. Alg defaults to
// "hmac-md5.sig-alg.reg.int." when omitted, matching RFC 2845's
// original algorithm and the teacher's own TsigKeys default.
type Key struct {
	Algorithm string
	Name      name.Name
	Secret    []byte
}

// Config is the fully-parsed result of one jnamed.conf-style file.
type Config struct {
	Port        int
	Address     string
	CacheFile   string
	Primaries   []PrimaryZone
	Secondaries []SecondaryZone
	Keys        []Key
}

const (
	defaultPort    = 53
	defaultAddress = "0.0.0.0"
)

// Parse reads a configuration file from r (§6's recognized keywords:
// primary, secondary, cache, key, port, address). Unknown keywords and
// malformed lines are rejected rather than silently ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{Port: defaultPort, Address: defaultAddress}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)
		keyword := strings.ToLower(fields[0])
		args := fields[1:]

		switch keyword {
		case "primary":
			if len(args) != 2 {
				return nil, fmt.Errorf("config: primary: expected origin and file: %w", dnserr.ErrTextParse)
			}
			origin, err := name.Parse(args[0])
			if err != nil {
				return nil, fmt.Errorf("config: primary origin %q: %w", args[0], err)
			}
			cfg.Primaries = append(cfg.Primaries, PrimaryZone{Origin: origin, File: args[1]})
		case "secondary":
			if len(args) != 2 {
				return nil, fmt.Errorf("config: secondary: expected origin and remote: %w", dnserr.ErrTextParse)
			}
			origin, err := name.Parse(args[0])
			if err != nil {
				return nil, fmt.Errorf("config: secondary origin %q: %w", args[0], err)
			}
			cfg.Secondaries = append(cfg.Secondaries, SecondaryZone{Origin: origin, Remote: args[1]})
		case "cache":
			if len(args) != 1 {
				return nil, fmt.Errorf("config: cache: expected one file argument: %w", dnserr.ErrTextParse)
			}
			cfg.CacheFile = args[0]
		case "key":
			k, err := parseKey(args)
			if err != nil {
				return nil, err
			}
			cfg.Keys = append(cfg.Keys, k)
		case "port":
			if len(args) != 1 {
				return nil, fmt.Errorf("config: port: expected one argument: %w", dnserr.ErrTextParse)
			}
			p, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("config: port %q: %w", args[0], err)
			}
			cfg.Port = p
		case "address":
			if len(args) != 1 {
				return nil, fmt.Errorf("config: address: expected one argument: %w", dnserr.ErrTextParse)
			}
			cfg.Address = args[0]
		default:
			return nil, fmt.Errorf("config: unrecognized keyword %q: %w", fields[0], dnserr.ErrTextParse)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKey handles both "key <name> <secret>" (algorithm defaults) and
// "key <alg> <name> <secret>" forms; secret is hex- or plain-text,
// matching jnamed.conf's own liberal key-secret format.
func parseKey(args []string) (Key, error) {
	var alg, keyName, secret string
	switch len(args) {
	case 2:
		alg, keyName, secret = "hmac-md5.sig-alg.reg.int.", args[0], args[1]
	case 3:
		alg, keyName, secret = args[0], args[1], args[2]
	default:
		return Key{}, fmt.Errorf("config: key: expected [alg] name secret: %w", dnserr.ErrTextParse)
	}
	n, err := name.Parse(keyName)
	if err != nil {
		return Key{}, fmt.Errorf("config: key name %q: %w", keyName, err)
	}
	if !strings.HasSuffix(alg, ".") {
		alg += "."
	}
	secretBytes, err := hex.DecodeString(secret)
	if err != nil {
		secretBytes = []byte(secret)
	}
	return Key{Algorithm: alg, Name: n, Secret: secretBytes}, nil
}
