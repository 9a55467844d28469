package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Installer hands a downloaded app artifact to the platform.
type Installer interface {
	Install(ctx context.Context, artifact string) error
}

// FileInstaller copies the artifact over a target path, keeping a backup of
// the previous file until the copy succeeds.
type FileInstaller struct {
	targetPath string
	backupPath string
}

// NewFileInstaller creates an installer writing to targetPath.
func NewFileInstaller(targetPath string) *FileInstaller {
	return &FileInstaller{
		targetPath: targetPath,
		backupPath: targetPath + ".backup",
	}
}

// Install replaces the target with a copy of artifact. The artifact itself is left in place.
func (i *FileInstaller) Install(ctx context.Context, artifact string) error {
	if err := os.MkdirAll(filepath.Dir(i.targetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}

	hadPrevious, err := i.createBackup()
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := copyFile(ctx, artifact, i.targetPath); err != nil {
		if hadPrevious {
			if rerr := i.Rollback(); rerr != nil {
				return errors.Join(fmt.Errorf("failed to install artifact: %w", err), rerr)
			}
		}
		return fmt.Errorf("failed to install artifact: %w", err)
	}

	_ = os.Remove(i.backupPath)
	return nil
}

// Rollback restores the backup taken by the last Install.
func (i *FileInstaller) Rollback() error {
	if _, err := os.Stat(i.backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup not found: %s", i.backupPath)
	}
	if err := os.Rename(i.backupPath, i.targetPath); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

// createBackup copies the current target aside. It reports false when there
// is nothing to back up.
func (i *FileInstaller) createBackup() (bool, error) {
	if _, err := os.Stat(i.targetPath); os.IsNotExist(err) {
		return false, nil
	}
	if err := copyFile(context.Background(), i.targetPath, i.backupPath); err != nil {
		_ = os.Remove(i.backupPath)
		return false, err
	}
	return true, nil
}

func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, &ctxReader{ctx: ctx, r: in}); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// CommandInstaller runs an external command with the artifact path appended,
// for example "adb install -r".
type CommandInstaller struct {
	argv []string
}

// NewCommandInstaller parses a whitespace separated command line.
func NewCommandInstaller(command string) (*CommandInstaller, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("install command is empty")
	}
	return &CommandInstaller{argv: argv}, nil
}

// Install runs the command and fails on a non-zero exit.
func (c *CommandInstaller) Install(ctx context.Context, artifact string) error {
	args := append(append([]string{}, c.argv[1:]...), artifact)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", c.argv[0], err)
		}
		return fmt.Errorf("%s: %w: %s", c.argv[0], err, msg)
	}
	return nil
}
