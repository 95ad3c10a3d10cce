// Package zonefile loads zone documents from YAML, JSON, or TOML files
// and builds immutable zones from them. A document names its origin and
// SOA once; record owners are relative labels expanded against the
// origin, with '@' standing for the origin itself.
package zonefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/az-dns/internal/dns/domain"
)

// DefaultTTL applies to records whose document omits a ttl.
const DefaultTTL uint32 = 300

// LoadDirectory walks dir, loading every supported zone document and
// returning the built zones keyed by origin. Each document is a
// complete zone; two documents with the same origin are an error.
func LoadDirectory(dir string) (map[string]*domain.Zone, error) {
	zones := make(map[string]*domain.Zone)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		z, err := LoadFile(path)
		if err != nil {
			return err
		}
		if z == nil {
			return nil // unsupported extension
		}
		key := z.Origin().Key()
		if _, dup := zones[key]; dup {
			return fmt.Errorf("%w: zone %s defined twice", domain.ErrMalformedRecord, z.Origin())
		}
		zones[key] = z
		return nil
	})
	if err != nil {
		return nil, err
	}
	return zones, nil
}

// LoadFile loads a single zone document. Files with an unsupported
// extension return (nil, nil) so directory walks can skip them.
func LoadFile(path string) (*domain.Zone, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}
	z, err := buildZone(k)
	if err != nil {
		return nil, fmt.Errorf("zone file %s: %w", path, err)
	}
	return z, nil
}

func buildZone(k *koanf.Koanf) (*domain.Zone, error) {
	origin, err := domain.ParseName(k.String("origin"))
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}

	ttl := DefaultTTL
	if k.Exists("ttl") {
		ttl = uint32(k.Int("ttl"))
	}

	soa, err := parseSOA(k, origin)
	if err != nil {
		return nil, err
	}

	builder := domain.NewZoneBuilder(origin)
	soaSet, err := domain.NewRRset(origin, domain.RRTypeSOA, ttl, soa)
	if err != nil {
		return nil, err
	}
	if err := builder.Add(soaSet); err != nil {
		return nil, err
	}

	for name, raw := range k.Raw() {
		switch name {
		case "origin", "ttl", "soa":
			continue
		}
		byType, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: entry %q is not a record map", domain.ErrMalformedRecord, name)
		}
		owner, err := expandOwner(name, origin)
		if err != nil {
			return nil, fmt.Errorf("owner %q: %w", name, err)
		}
		for typeName, val := range byType {
			rrtype := domain.RRTypeFromString(strings.ToUpper(typeName))
			if rrtype == 0 {
				return nil, fmt.Errorf("%w: unknown record type %q at %s", domain.ErrMalformedRecord, typeName, owner)
			}
			var data []domain.RData
			for _, text := range stringValues(val) {
				rd, err := parseRData(rrtype, text, origin)
				if err != nil {
					return nil, fmt.Errorf("record %s %s %q: %w", owner, typeName, text, err)
				}
				data = append(data, rd)
			}
			if len(data) == 0 {
				return nil, fmt.Errorf("%w: empty %s set at %s", domain.ErrMalformedRecord, typeName, owner)
			}
			set, err := domain.NewRRset(owner, rrtype, ttl, data...)
			if err != nil {
				return nil, err
			}
			if err := builder.Add(set); err != nil {
				return nil, err
			}
		}
	}
	return builder.Build()
}

func parseSOA(k *koanf.Koanf, origin domain.Name) (domain.SOAData, error) {
	if !k.Exists("soa") {
		return domain.SOAData{}, domain.ErrMissingSOA
	}
	mname, err := parseDocName(k.String("soa.mname"), origin)
	if err != nil {
		return domain.SOAData{}, fmt.Errorf("soa.mname: %w", err)
	}
	rname, err := parseDocName(k.String("soa.rname"), origin)
	if err != nil {
		return domain.SOAData{}, fmt.Errorf("soa.rname: %w", err)
	}
	return domain.NewSOAData(
		mname,
		rname,
		uint32(k.Int64("soa.serial")),
		uint32(k.Int64("soa.refresh")),
		uint32(k.Int64("soa.retry")),
		uint32(k.Int64("soa.expire")),
		uint32(k.Int64("soa.minimum")),
	)
}

// expandOwner resolves a document label against the origin. '@' is the
// origin; a trailing dot marks an absolute name; anything else is
// relative.
func expandOwner(label string, origin domain.Name) (domain.Name, error) {
	if label == "@" {
		return origin, nil
	}
	if strings.HasSuffix(label, ".") {
		return domain.ParseName(label)
	}
	rel, err := domain.ParseName(label)
	if err != nil {
		return domain.Name{}, err
	}
	return domain.NewName(append(origin.Labels(), rel.Labels()...))
}

// parseDocName resolves a record value that names another host. Unlike
// owners, bare values are also treated as relative to the origin.
func parseDocName(s string, origin domain.Name) (domain.Name, error) {
	return expandOwner(s, origin)
}

func stringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// parseRData converts one textual record value into typed data. MX is
// "preference exchange" and SRV is "priority weight port target", both
// space separated.
func parseRData(rrtype domain.RRType, text string, origin domain.Name) (domain.RData, error) {
	switch rrtype {
	case domain.RRTypeA:
		return domain.ParseAData(text)
	case domain.RRTypeAAAA:
		return domain.ParseAAAAData(text)
	case domain.RRTypeCNAME:
		target, err := parseDocName(text, origin)
		if err != nil {
			return nil, err
		}
		return domain.NewCNAMEData(target)
	case domain.RRTypeNS:
		target, err := parseDocName(text, origin)
		if err != nil {
			return nil, err
		}
		return domain.NewNSData(target)
	case domain.RRTypePTR:
		target, err := parseDocName(text, origin)
		if err != nil {
			return nil, err
		}
		return domain.NewPTRData(target)
	case domain.RRTypeMX:
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: MX wants \"preference exchange\"", domain.ErrMalformedRecord)
		}
		pref, err := parseUint16(fields[0])
		if err != nil {
			return nil, err
		}
		exchange, err := parseDocName(fields[1], origin)
		if err != nil {
			return nil, err
		}
		return domain.NewMXData(pref, exchange)
	case domain.RRTypeSRV:
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: SRV wants \"priority weight port target\"", domain.ErrMalformedRecord)
		}
		nums := make([]uint16, 3)
		for i := 0; i < 3; i++ {
			n, err := parseUint16(fields[i])
			if err != nil {
				return nil, err
			}
			nums[i] = n
		}
		target, err := parseDocName(fields[3], origin)
		if err != nil {
			return nil, err
		}
		return domain.NewSRVData(nums[0], nums[1], nums[2], target)
	case domain.RRTypeTXT:
		return domain.NewTXTData(text)
	default:
		return nil, fmt.Errorf("%w: type %s has no text form", domain.ErrMalformedRecord, rrtype)
	}
}

func parseUint16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 16-bit integer", domain.ErrMalformedRecord, s)
	}
	return uint16(n), nil
}
