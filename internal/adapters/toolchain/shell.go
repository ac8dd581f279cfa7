package toolchain

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

const (
	unitPlaceholder   = "{unit}"
	outputPlaceholder = "{output}"
)

// Shell implements ports.NativeCompiler using os/exec.
type Shell struct{}

// NewShell creates a new Shell compiler.
func NewShell() *Shell {
	return &Shell{}
}

// Compile runs command in the directory of unitPath.
// {unit} and {output} are replaced in every argument, and the paths are also
// exported as RECON_UNIT and RECON_OUTPUT.
func (s *Shell) Compile(
	ctx context.Context,
	command []string,
	unitPath, outputPath string,
	stdout, stderr io.Writer,
) error {
	if len(command) == 0 {
		return nil
	}

	replacer := strings.NewReplacer(unitPlaceholder, unitPath, outputPlaceholder, outputPath)
	argv := make([]string, len(command))
	for i, arg := range command {
		argv[i] = replacer.Replace(arg)
	}
	name := argv[0]

	cmdEnv := resolveEnvironment(os.Environ(), map[string]string{
		"RECON_UNIT":   unitPath,
		"RECON_OUTPUT": outputPath,
	})

	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command

	// exec.CommandContext sets Args[0] to the executable path.
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = filepath.Dir(unitPath)
	cmd.Env = cmdEnv
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "native command failed"), "command", name), "exit_code", exitCode)
	}
	return nil
}

// resolveEnvironment overlays overrides on the system environment.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "PATH="); ok {
			path = after
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
