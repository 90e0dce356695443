package control

import "strings"

// commandSwitchTarget extracts the target screen name from a command
// binding's action string ("switch:NAME"); it returns "" for any
// other action, which applyCommandBindings treats as unrecognized and
// skips.
func commandSwitchTarget(action string) string {
	const prefix = "switch:"
	if !strings.HasPrefix(action, prefix) {
		return ""
	}
	return strings.TrimPrefix(action, prefix)
}

// keyCodeForName maps a config key name to the wire protocol's KeyID
// space. Until a real primary-driver backend supplies OS key codes,
// single printable characters map to their ASCII value and named keys
// use a small fixed table; anything else maps to 0 and will never
// match an incoming event.
func keyCodeForName(name string) uint32 {
	if len(name) == 1 {
		return uint32(name[0])
	}
	switch strings.ToLower(name) {
	case "f1":
		return 0xF001
	case "f2":
		return 0xF002
	case "f3":
		return 0xF003
	case "f4":
		return 0xF004
	case "f5":
		return 0xF005
	case "f6":
		return 0xF006
	case "f7":
		return 0xF007
	case "f8":
		return 0xF008
	case "f9":
		return 0xF009
	case "f10":
		return 0xF00A
	case "f11":
		return 0xF00B
	case "f12":
		return 0xF00C
	case "scrolllock":
		return 0xF020
	default:
		return 0
	}
}

const (
	modShift = 1 << 0
	modCtrl  = 1 << 1
	modAlt   = 1 << 2
	modSuper = 1 << 3
)

// modMaskForName maps a config modifier name ("ctrl+alt", "super") to
// the wire protocol's modMask bitset.
func modMaskForName(name string) uint32 {
	var mask uint32
	for _, part := range strings.Split(name, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "shift":
			mask |= modShift
		case "ctrl", "control":
			mask |= modCtrl
		case "alt":
			mask |= modAlt
		case "super", "meta", "cmd", "win":
			mask |= modSuper
		}
	}
	return mask
}
