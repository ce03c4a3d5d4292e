// Package files implements generic file tools missing from the standard library.
package files

import "os"

// Exists returns true if file or directory exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
