//go:build !windows
// +build !windows

package qs

import (
	"os"
	"os/user"
	"path/filepath"
)

//	Find home directory of logged-in user even when run as sudo
func UnsudoedHomeDir() (home string) {
	userName := os.Getenv("SUDO_USER")
	if userName == "" {
		userName = os.Getenv("USER")
	}
	currentUser, err := user.Lookup(userName)
	if err == nil && currentUser != nil {
		home = currentUser.HomeDir
	} else {
		home = os.Getenv("HOME")
	}
	return
}

func ConfigDir() string {
	return filepath.Join(UnsudoedHomeDir(), ".qs")
}
