package types

import (
	"errors"
	"regexp"
)

// Config carries the directory and pattern settings passed into each
// component entry point. There is no process-wide mutable path state.
type Config struct {
	BackupDir         string `json:"backup_dir" yaml:"backup_dir"`
	AttachmentsDir    string `json:"attachments_dir" yaml:"attachments_dir"`
	OutputDir         string `json:"output_dir" yaml:"output_dir"`
	ProjectKeyPattern string `json:"project_key_pattern" yaml:"project_key_pattern"`
}

// DefaultKeyPattern matches tracker issue keys such as PROJ-42.
const DefaultKeyPattern = `^[A-Z][A-Z0-9]*-[1-9][0-9]*$`

// Config validation errors.
var (
	ErrBackupDirEmpty    = errors.New("backup_dir must not be empty")
	ErrKeyPatternInvalid = errors.New("project_key_pattern is not a valid pattern")
)

// Validate checks that the Config is well-formed. It returns a
// sentinel error from this package on failure.
func (c Config) Validate() error {
	if c.BackupDir == "" {
		return ErrBackupDirEmpty
	}
	if c.ProjectKeyPattern != "" {
		if _, err := regexp.Compile(c.ProjectKeyPattern); err != nil {
			return ErrKeyPatternInvalid
		}
	}
	return nil
}

// KeyPattern returns the configured issue-key pattern, falling back to
// DefaultKeyPattern.
func (c Config) KeyPattern() string {
	if c.ProjectKeyPattern != "" {
		return c.ProjectKeyPattern
	}
	return DefaultKeyPattern
}
