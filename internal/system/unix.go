package system

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/moby/sys/user"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

const (
	passwdPath = "/etc/passwd"
	groupPath  = "/etc/group"
	shadowPath = "/etc/shadow"
)

// UnixSystem is the production System implementation. File and tree
// operations go through an afero.Fs so tests can swap in a memory
// filesystem; account creation edits /etc/passwd and /etc/group
// directly, which also works on images that ship no useradd binary.
type UnixSystem struct {
	fs     afero.Fs
	passwd string
	group  string
	shadow string
}

func NewUnixSystem() *UnixSystem {
	return &UnixSystem{
		fs:     afero.NewOsFs(),
		passwd: passwdPath,
		group:  groupPath,
		shadow: shadowPath,
	}
}

func (s *UnixSystem) LookupAccount(name string) (*Account, bool, error) {
	f, err := s.fs.Open(s.passwd)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open %s: %w", s.passwd, err)
	}
	defer f.Close()

	users, err := user.ParsePasswdFilter(f, func(u user.User) bool {
		return u.Name == name
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", s.passwd, err)
	}
	if len(users) == 0 {
		return nil, false, nil
	}

	u := users[0]
	return &Account{
		Name:    u.Name,
		UID:     u.Uid,
		GID:     u.Gid,
		HomeDir: u.Home,
		Shell:   u.Shell,
	}, true, nil
}

func (s *UnixSystem) CreateAccount(acct Account) error {
	if _, exists, err := s.LookupAccount(acct.Name); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("account %q already exists", acct.Name)
	}

	groupLine := fmt.Sprintf("%s:x:%d:\n", acct.Name, acct.GID)
	if err := s.AppendFile(s.group, []byte(groupLine), 0644); err != nil {
		return fmt.Errorf("failed to add group %q: %w", acct.Name, err)
	}

	passwdLine := fmt.Sprintf("%s:x:%d:%d:%s service account:%s:%s\n",
		acct.Name, acct.UID, acct.GID, acct.Name, acct.HomeDir, acct.Shell)
	if err := s.AppendFile(s.passwd, []byte(passwdLine), 0644); err != nil {
		return fmt.Errorf("failed to add user %q: %w", acct.Name, err)
	}

	// Lock the password when the image carries a shadow database.
	if exists, err := s.Exists(s.shadow); err == nil && exists {
		days := time.Now().Unix() / 86400
		shadowLine := fmt.Sprintf("%s:!:%d:0:99999:7:::\n", acct.Name, days)
		if err := s.AppendFile(s.shadow, []byte(shadowLine), 0600); err != nil {
			return fmt.Errorf("failed to add shadow entry for %q: %w", acct.Name, err)
		}
	}

	return nil
}

func (s *UnixSystem) MkdirAll(path string, perm os.FileMode) error {
	return s.fs.MkdirAll(path, perm)
}

func (s *UnixSystem) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

func (s *UnixSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

func (s *UnixSystem) AppendFile(path string, data []byte, perm os.FileMode) error {
	f, err := s.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *UnixSystem) Chmod(path string, mode os.FileMode) error {
	return s.fs.Chmod(path, mode)
}

func (s *UnixSystem) ChownRecursive(root string, uid, gid int) error {
	return afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return s.fs.Chown(path, uid, gid)
	})
}

func (s *UnixSystem) ChmodRecursive(root string, mode os.FileMode) error {
	return afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return s.fs.Chmod(path, mode)
	})
}

func (s *UnixSystem) Chdir(dir string) error {
	return os.Chdir(dir)
}

// Exec drops privileges to acct and replaces the current process with
// argv. The uid/gid switch is permanent (setgid before setuid, with
// the supplementary group list reset), so the target command cannot
// regain root.
func (s *UnixSystem) Exec(acct Account, argv []string, env []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no command to execute")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("command %q not found: %w", argv[0], err)
	}

	if err := unix.Setgroups([]int{acct.GID}); err != nil {
		return fmt.Errorf("failed to set supplementary groups: %w", err)
	}
	if err := unix.Setgid(acct.GID); err != nil {
		return fmt.Errorf("failed to switch to gid %d: %w", acct.GID, err)
	}
	if err := unix.Setuid(acct.UID); err != nil {
		return fmt.Errorf("failed to switch to uid %d: %w", acct.UID, err)
	}

	return unix.Exec(path, argv, env)
}
