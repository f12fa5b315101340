package git

import (
	"fmt"
	"strconv"
)

// gitFileMode is an octal mode from git --raw output.
type gitFileMode uint32

const (
	gitFileModeEmpty   gitFileMode = 0
	gitFileModeRegular gitFileMode = 0o100644
	gitFileModeExec    gitFileMode = 0o100755
	gitFileModeSymlink gitFileMode = 0o120000
	gitFileModeGitlink gitFileMode = 0o160000
)

// IsFile reports whether the mode carries blob content. Submodule entries
// (gitlinks) and absent sides do not.
func (m gitFileMode) IsFile() bool {
	switch m {
	case gitFileModeRegular, gitFileModeExec, gitFileModeSymlink:
		return true
	default:
		return false
	}
}

func parseGitFileMode(s string) (gitFileMode, error) {
	if s == "" {
		return gitFileModeEmpty, nil
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return gitFileModeEmpty, fmt.Errorf("parse file mode %q: %w", s, err)
	}
	return gitFileMode(v), nil
}
