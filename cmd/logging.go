package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

const (
	GroupsKey string = "groups"
)

func logReplacements(groups []string, a slog.Attr) slog.Attr {
	// Remove time.
	if a.Key == slog.TimeKey && len(groups) == 0 && !logTimeFlag {
		return slog.Attr{}
	}

	// Remove the directory from the source's filename.
	if a.Key == slog.SourceKey {
		source := a.Value.Any().(*slog.Source)
		source.File = filepath.Base(source.File)
	}

	// Format group masks as both a hex and binary number
	if a.Key == GroupsKey {
		// slog stores the uint32 mask as a uint64
		mask, ok := a.Value.Any().(uint64)
		if ok {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(fmt.Sprintf("%#x;(%#034b)", mask, mask))}
		}
	}

	return a
}
