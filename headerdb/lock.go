// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerdb

import (
	"os"

	"golang.org/x/sys/unix"
)

// dbLock holds an advisory, exclusive lock on the store's directory so a
// second process cannot open the same Header Store concurrently and
// corrupt it. goleveldb already refuses a second open of its own files, but
// that check races with our own VERSION/FLAGS bookkeeping, so Open takes
// this lock first.
type dbLock struct {
	f *os.File
}

func acquireLock(dir string) (*dbLock, error) {
	path := dir + string(os.PathSeparator) + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return &dbLock{f: f}, nil
}

func (l *dbLock) release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
