package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "valid minimal",
			config: Config{BackupDir: "backup"},
		},
		{
			name:   "valid with pattern",
			config: Config{BackupDir: "backup", ProjectKeyPattern: `^QA-[0-9]+$`},
		},
		{
			name:    "missing backup dir",
			config:  Config{},
			wantErr: ErrBackupDirEmpty,
		},
		{
			name:    "broken pattern",
			config:  Config{BackupDir: "backup", ProjectKeyPattern: `^(`},
			wantErr: ErrKeyPatternInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigKeyPattern(t *testing.T) {
	assert.Equal(t, DefaultKeyPattern, Config{}.KeyPattern())
	assert.Equal(t, `^QA-[0-9]+$`, Config{ProjectKeyPattern: `^QA-[0-9]+$`}.KeyPattern())
}
