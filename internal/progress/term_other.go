//go:build !linux

package progress

import "golang.org/x/sys/unix"

func termiosIoctlGets() uint {
	return unix.TIOCGETA
}
