//go:build unix && !darwin && !ios

package probe

// ru_maxrss is reported in kilobytes on linux and the BSDs.
const maxrssUnit = 1024
