// Package system isolates every side effect of the bootstrap behind a
// capability interface: account-database mutation, filesystem metadata
// changes and process replacement. The decision logic in the bootstrap
// package only ever talks to this interface, so it can be exercised
// against a fake without touching a real /etc/passwd.
package system

import (
	"os"
)

// Account is an OS user account as the bootstrap sees it.
type Account struct {
	Name    string
	UID     int
	GID     int
	HomeDir string
	Shell   string
}

// System is the set of host capabilities the bootstrap needs.
type System interface {
	// LookupAccount reports the account with the given name, if any.
	LookupAccount(name string) (*Account, bool, error)

	// CreateAccount adds a locked, no-password account to the user
	// database. It fails if the name is already taken.
	CreateAccount(acct Account) error

	MkdirAll(path string, perm os.FileMode) error
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)

	// AppendFile appends data to path, creating it with perm when it
	// does not exist. Existing content is never overwritten.
	AppendFile(path string, data []byte, perm os.FileMode) error

	Chmod(path string, mode os.FileMode) error

	// ChownRecursive / ChmodRecursive apply to the whole tree rooted
	// at root, including root itself.
	ChownRecursive(root string, uid, gid int) error
	ChmodRecursive(root string, mode os.FileMode) error

	Chdir(dir string) error

	// Exec replaces the current process image with argv running as
	// acct. On success it never returns; any return value is an error.
	Exec(acct Account, argv []string, env []string) error
}
