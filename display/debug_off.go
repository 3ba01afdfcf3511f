//go:build !debug

package display

const debugBuild = false
