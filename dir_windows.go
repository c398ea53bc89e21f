//go:build windows
// +build windows

package qs

import (
	"os"
	"os/user"
	"path/filepath"
)

//	Find home directory of logged-in user
func UnsudoedHomeDir() (home string) {
	currentUser, err := user.Current()
	if err == nil && currentUser != nil {
		home = currentUser.HomeDir
	} else {
		home = os.Getenv("HOME")
	}
	return
}

func ConfigDir() string {
	return filepath.Join(UnsudoedHomeDir(), "appdata", "local", "qs")
}
