// Package bootstrap implements the one-time container initialization
// sequence: validate the externally supplied identity and mode,
// provision the service account, normalize ownership and permissions
// on the bind-mounted state trees, write the login banner and finally
// replace the process with the application command running under the
// provisioned account.
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"stackboot/internal/config"
	"stackboot/internal/logging"
	"stackboot/internal/system"
)

// MinUID is the lowest identity accepted for the service account.
// Everything below is reserved for system accounts of the base image.
const MinUID = 1000

// stateDirMode is the permission applied recursively to the managed
// trees: owner+group full access, group-sticky, no world access.
const stateDirMode = os.FileMode(0770) | os.ModeSetgid

// profileMarker guards the login-banner profile snippet so re-runs
// never install it twice.
const profileMarker = "# stackboot: show login banner"

// Plan is the validated outcome of the configuration: the account to
// provision and the deployment mode. Building a Plan has no side
// effects, so `stackboot check` can surface it as a dry run.
type Plan struct {
	Account system.Account
	Mode    Mode
}

// ValidateConfig checks the raw configuration and resolves it into a
// Plan. "Unset" and "below minimum" are enforced as two independent
// fatal checks on the identity.
func ValidateConfig(cfg *config.Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	uid, err := strconv.Atoi(cfg.UserID)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("USER_ID %q is not a number", cfg.UserID)}
	}
	if uid < MinUID {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("USER_ID %d is below the minimum %d", uid, MinUID)}
	}

	mode, err := ParseMode(cfg.Runtime)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Account: system.Account{
			Name:    cfg.Account,
			UID:     uid,
			GID:     uid,
			HomeDir: cfg.DataDir,
			Shell:   cfg.Shell,
		},
		Mode: mode,
	}, nil
}

// Bootstrapper runs the initialization sequence against a System.
type Bootstrapper struct {
	cfg    *config.Config
	sys    system.System
	logger *logging.Logger
}

func New(cfg *config.Config, sys system.System, logger *logging.Logger) *Bootstrapper {
	return &Bootstrapper{
		cfg:    cfg,
		sys:    sys,
		logger: logger,
	}
}

// Run executes the bootstrap and, on success, does not return: the
// process image is replaced by command running as the provisioned
// account. Every returned error is fatal; nothing is retried. Each
// individual step is idempotent, so a re-run after a crashed attempt
// is safe.
func (b *Bootstrapper) Run(command []string) error {
	if len(command) == 0 {
		return &ConfigurationError{Reason: "no command to execute"}
	}

	plan, err := ValidateConfig(b.cfg)
	if err != nil {
		return err
	}

	acct, err := b.provisionAccount(plan.Account)
	if err != nil {
		return err
	}

	if err := b.normalizeTrees(*acct); err != nil {
		return err
	}

	if err := b.writeBanner(plan.Mode); err != nil {
		return err
	}

	if err := b.installProfileSnippet(); err != nil {
		return err
	}

	exists, err := b.sys.Exists(acct.HomeDir)
	if err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to check home directory %s", acct.HomeDir), Err: err}
	}
	if !exists {
		return &EnvironmentError{Reason: fmt.Sprintf("home directory %s does not exist", acct.HomeDir)}
	}
	if err := b.sys.Chdir(acct.HomeDir); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to enter home directory %s", acct.HomeDir), Err: err}
	}

	b.logger.Info("Handing off to %s as %s (uid %d)", strings.Join(command, " "), acct.Name, acct.UID)

	// Terminal step. A return here means exec itself failed.
	if err := b.sys.Exec(*acct, command, execEnv(*acct)); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to execute %s", command[0]), Err: err}
	}
	return nil
}

// provisionAccount creates the service account, or adopts an existing
// one left behind by a previous attempt as long as its uid matches.
func (b *Bootstrapper) provisionAccount(want system.Account) (*system.Account, error) {
	existing, found, err := b.sys.LookupAccount(want.Name)
	if err != nil {
		return nil, &EnvironmentError{Reason: fmt.Sprintf("failed to look up account %q", want.Name), Err: err}
	}
	if found {
		if existing.UID != want.UID {
			return nil, &EnvironmentError{Reason: fmt.Sprintf("account %q already exists with uid %d, expected %d", want.Name, existing.UID, want.UID)}
		}
		b.logger.Info("Account %s (uid %d) already present, reusing it", existing.Name, existing.UID)
		return existing, nil
	}

	if err := b.sys.CreateAccount(want); err != nil {
		return nil, &EnvironmentError{Reason: fmt.Sprintf("failed to create account %q", want.Name), Err: err}
	}
	b.logger.Info("Created account %s (uid %d, shell %s)", want.Name, want.UID, want.Shell)
	return &want, nil
}

// normalizeTrees resets ownership and permissions on the three
// managed trees regardless of what a previous run or the orchestrator
// left there. The data and log trees are bind-mounted volumes and
// must pre-exist; only the configuration tree is created on demand.
func (b *Bootstrapper) normalizeTrees(acct system.Account) error {
	if err := b.sys.MkdirAll(b.cfg.ConfigDir, stateDirMode); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to create configuration directory %s", b.cfg.ConfigDir), Err: err}
	}

	for _, dir := range []string{b.cfg.DataDir, b.cfg.LogDir, b.cfg.ConfigDir} {
		if err := b.sys.ChownRecursive(dir, acct.UID, acct.GID); err != nil {
			return &EnvironmentError{Reason: fmt.Sprintf("failed to change ownership of %s", dir), Err: err}
		}
		if err := b.sys.ChmodRecursive(dir, stateDirMode); err != nil {
			return &EnvironmentError{Reason: fmt.Sprintf("failed to change permissions of %s", dir), Err: err}
		}
		b.logger.Info("Normalized %s to %d:%d (mode 2770)", dir, acct.UID, acct.GID)
	}
	return nil
}

// writeBanner appends the mode line to the banner file and, when the
// optional static message file is present, appends its contents too.
// The banner is append-only; it is never truncated or overwritten.
func (b *Bootstrapper) writeBanner(mode Mode) error {
	line := mode.BannerLine() + "\n"
	if err := b.sys.AppendFile(b.cfg.BannerFile, []byte(line), 0644); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to append to banner file %s", b.cfg.BannerFile), Err: err}
	}
	b.logger.Info("Recorded %s mode in %s", mode, b.cfg.BannerFile)

	if b.cfg.MessageFile == "" {
		return nil
	}
	exists, err := b.sys.Exists(b.cfg.MessageFile)
	if err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to check message file %s", b.cfg.MessageFile), Err: err}
	}
	if !exists {
		return nil
	}

	msg, err := b.sys.ReadFile(b.cfg.MessageFile)
	if err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to read message file %s", b.cfg.MessageFile), Err: err}
	}
	if err := b.sys.AppendFile(b.cfg.BannerFile, msg, 0644); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to append message to %s", b.cfg.BannerFile), Err: err}
	}
	if err := b.sys.Chmod(b.cfg.BannerFile, 0644); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to set permissions on %s", b.cfg.BannerFile), Err: err}
	}
	b.logger.Info("Appended static message from %s", b.cfg.MessageFile)
	return nil
}

// installProfileSnippet makes interactive shells print the banner at
// login. The marker keeps the install idempotent: once the snippet is
// in the profile it is never touched again.
func (b *Bootstrapper) installProfileSnippet() error {
	exists, err := b.sys.Exists(b.cfg.ProfileFile)
	if err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to check profile file %s", b.cfg.ProfileFile), Err: err}
	}
	if exists {
		current, err := b.sys.ReadFile(b.cfg.ProfileFile)
		if err != nil {
			return &EnvironmentError{Reason: fmt.Sprintf("failed to read profile file %s", b.cfg.ProfileFile), Err: err}
		}
		if strings.Contains(string(current), profileMarker) {
			return nil
		}
	}

	snippet := fmt.Sprintf("\n%s\nif [ -f %s ]; then\n    cat %s\nfi\n",
		profileMarker, b.cfg.BannerFile, b.cfg.BannerFile)
	if err := b.sys.AppendFile(b.cfg.ProfileFile, []byte(snippet), 0644); err != nil {
		return &EnvironmentError{Reason: fmt.Sprintf("failed to install profile snippet in %s", b.cfg.ProfileFile), Err: err}
	}
	b.logger.Info("Installed login banner snippet in %s", b.cfg.ProfileFile)
	return nil
}

// execEnv builds the environment for the target command: the current
// environment with HOME, USER and LOGNAME rewritten for the account.
func execEnv(acct system.Account) []string {
	env := make([]string, 0, len(os.Environ())+3)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "HOME=") || strings.HasPrefix(kv, "USER=") || strings.HasPrefix(kv, "LOGNAME=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env,
		"HOME="+acct.HomeDir,
		"USER="+acct.Name,
		"LOGNAME="+acct.Name,
	)
}
