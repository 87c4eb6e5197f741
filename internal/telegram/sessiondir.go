package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

var sessionFileRe = regexp.MustCompile(`^user_(\d+)\.session$`)

// SessionDir is the on-disk credential store: one session file per
// authenticated user, named user_<id>.session.
type SessionDir struct {
	path string
}

// NewSessionDir creates the directory if it does not exist
func NewSessionDir(path string) (*SessionDir, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &SessionDir{path: path}, nil
}

// PathFor returns the session file path for a user
func (d *SessionDir) PathFor(userID int64) string {
	return filepath.Join(d.path, fmt.Sprintf("user_%d.session", userID))
}

// Users enumerates the user ids with a persisted session file
func (d *SessionDir) Users() ([]int64, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var users []int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := sessionFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		users = append(users, id)
	}
	return users, nil
}

// Remove deletes a user's session file. Removing a missing file is not an
// error.
func (d *SessionDir) Remove(userID int64) error {
	err := os.Remove(d.PathFor(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
