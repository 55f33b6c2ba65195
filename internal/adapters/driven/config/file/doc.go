// Package file keeps settings in ~/.scholar/config.toml.
package file
