// Package errkind classifies operational errors into coarse categories
// (network, filesystem, validation, config) so that retry and reporting
// logic can branch on error kind instead of matching message strings.
package errkind
