package logic

import "fmt"

// KeyMap maps gears to the key pressed when the shifter enters them.
type KeyMap map[Gear]KeySymbol

// DefaultKeyMap maps neutral to 'n', gears to their digit and reverse to 'r'.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Neutral: 'n',
		Gear1:   '1',
		Gear2:   '2',
		Gear3:   '3',
		Gear4:   '4',
		Gear5:   '5',
		Gear6:   '6',
		Reverse: 'r',
	}
}

// Lookup returns the key for g. Unmapped gears press nothing.
func (k KeyMap) Lookup(g Gear) (KeySymbol, bool) {
	sym, ok := k[g]
	if !ok || sym == 0 {
		return 0, false
	}
	return sym, true
}

// ParseKeyMap builds a KeyMap from gear name to single-character key,
// e.g. {"N": "n", "R": "r"}. An empty key leaves the gear unmapped.
func ParseKeyMap(m map[string]string) (KeyMap, error) {
	out := make(KeyMap, len(m))
	seen := make(map[Gear]bool, len(m))
	for name, key := range m {
		g, err := ParseGear(name)
		if err != nil {
			return nil, err
		}
		if seen[g] {
			return nil, fmt.Errorf("gear %s mapped more than once", g)
		}
		seen[g] = true
		r := []rune(key)
		switch len(r) {
		case 0:
			continue
		case 1:
			out[g] = KeySymbol(r[0])
		default:
			return nil, fmt.Errorf("key for gear %s must be a single character, got %q", g, key)
		}
	}
	return out, nil
}
