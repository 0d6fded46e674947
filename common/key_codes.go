package common

// Windows virtual key codes. Browser key events carry these in their WindowsKeyCode field
// regardless of the host platform.
// Reference: https://learn.microsoft.com/en-us/windows/win32/inputdev/virtual-key-codes
const (
	VKBack     = 0x08 // Backspace
	VKTab      = 0x09 // Tab
	VKReturn   = 0x0D // Enter
	VKShift    = 0x10 // Either Shift
	VKControl  = 0x11 // Either Ctrl
	VKMenu     = 0x12 // Either Alt
	VKCapital  = 0x14 // Caps Lock
	VKEscape   = 0x1B // Escape
	VKSpace    = 0x20 // Spacebar
	VKPrior    = 0x21 // Page Up
	VKNext     = 0x22 // Page Down
	VKEnd      = 0x23 // End
	VKHome     = 0x24 // Home
	VKLeft     = 0x25 // Left arrow
	VKUp       = 0x26 // Up arrow
	VKRight    = 0x27 // Right arrow
	VKDown     = 0x28 // Down arrow
	VKInsert   = 0x2D // Insert
	VKDelete   = 0x2E // Delete
	VKNumLock  = 0x90 // Num Lock
	VKLShift   = 0xA0 // Left Shift
	VKRShift   = 0xA1 // Right Shift
	VKLControl = 0xA2 // Left Ctrl
	VKRControl = 0xA3 // Right Ctrl
	VKLMenu    = 0xA4 // Left Alt
	VKRMenu    = 0xA5 // Right Alt
)

// Host key codes used by the example programs for their own hotkeys.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyF1  = 290 // F1 key (GLFW)
	KeyF2  = 291 // F2 key (GLFW)
	KeyF3  = 292 // F3 key (GLFW)
	KeyF12 = 301 // F12 key (GLFW)
	KeyEsc = 256 // Escape key (GLFW)
)
