//go:build debug

package display

const debugBuild = true
