package input

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/browser"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// specialKey is a keyboard key with a fixed virtual-key code.
type specialKey struct {
	vk        int
	printable bool
}

var specialKeys = map[KeyID]specialKey{
	KeyBackspace:  {vk: common.VKBack},
	KeyTab:        {vk: common.VKTab, printable: true},
	KeyEnter:      {vk: common.VKReturn, printable: true},
	KeyLShift:     {vk: common.VKLShift},
	KeyRShift:     {vk: common.VKRShift},
	KeyLCtrl:      {vk: common.VKLControl},
	KeyRCtrl:      {vk: common.VKRControl},
	KeyLAlt:       {vk: common.VKLMenu},
	KeyRAlt:       {vk: common.VKRMenu},
	KeyEscape:     {vk: common.VKEscape},
	KeyArrowLeft:  {vk: common.VKLeft},
	KeyArrowUp:    {vk: common.VKUp},
	KeyArrowRight: {vk: common.VKRight},
	KeyArrowDown:  {vk: common.VKDown},
	KeyInsert:     {vk: common.VKInsert},
	KeyDelete:     {vk: common.VKDelete},
}

// keyCharacters are the characters Tab and Enter type when the host does not report one.
var keyCharacters = map[KeyID]byte{
	KeyTab:   '\t',
	KeyEnter: '\r',
}

// mappedKey is a DeviceEvent translated for the browser.
type mappedKey struct {
	keyCode   int
	char      byte
	printable bool
	modifiers browser.EventFlags
}

// mapKey translates a keyboard DeviceEvent. Keys without a fixed code use their character as
// the code, upper-cased for letters to match the virtual-key convention.
func mapKey(ev DeviceEvent) mappedKey {
	m := mappedKey{
		char:      ev.Char,
		modifiers: keyModifiers(ev.Modifiers),
	}
	if m.char == 0 {
		m.char = keyCharacters[ev.Key]
	}

	if sk, ok := specialKeys[ev.Key]; ok {
		m.keyCode = sk.vk
		m.printable = sk.printable
		return m
	}

	m.printable = true
	m.keyCode = int(m.char)
	if m.char >= 'a' && m.char <= 'z' {
		m.keyCode = int(m.char - 'a' + 'A')
	}
	return m
}

// keyModifiers converts a host modifier mask to browser event flags.
func keyModifiers(mods Modifier) browser.EventFlags {
	var f browser.EventFlags
	if mods&ModShift != 0 {
		f |= browser.FlagShiftDown
	}
	if mods&ModCtrl != 0 {
		f |= browser.FlagControlDown
	}
	if mods&ModAlt != 0 {
		f |= browser.FlagAltDown
	}
	if mods&ModCapsLock != 0 {
		f |= browser.FlagCapsLockOn
	}
	if mods&ModNumLock != 0 {
		f |= browser.FlagNumLockOn
	}
	if mods&(ModLShift|ModLCtrl|ModLAlt) != 0 {
		f |= browser.FlagIsLeft
	}
	if mods&(ModRShift|ModRCtrl|ModRAlt) != 0 {
		f |= browser.FlagIsRight
	}
	return f
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeChar converts an 8-bit character in codePage to its first UTF-16 code unit.
// It returns 0 when the character does not decode.
func decodeChar(codePage encoding.Encoding, c byte) uint16 {
	if c == 0 {
		return 0
	}
	utf8, err := codePage.NewDecoder().Bytes([]byte{c})
	if err != nil || len(utf8) == 0 {
		return 0
	}
	units, err := utf16LE.NewEncoder().Bytes(utf8)
	if err != nil || len(units) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(units)
}

// runeUnit returns the first UTF-16 code unit of r.
func runeUnit(r rune) uint16 {
	if r < 0x10000 {
		return uint16(r)
	}
	units, err := utf16LE.NewEncoder().Bytes([]byte(string(r)))
	if err != nil || len(units) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(units)
}
