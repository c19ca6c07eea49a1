// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package watch

import "context"

const supported = false

func (n *Notifier) open() error {
	return nil
}

func (n *Notifier) addWatch(string) (int, error) {
	return 0, ErrUnsupported
}

func (n *Notifier) removeWatch(int) error {
	return nil
}

func (n *Notifier) close() error {
	return nil
}

func (n *Notifier) run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
