package log

import "log/slog"

func slogDefaultError(msg string, err error) {
	slog.Error(msg, ErrAttr(err))
}
