//go:build darwin || ios

package probe

// ru_maxrss is reported in bytes on darwin.
const maxrssUnit = 1
