package system

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFs wraps a memory filesystem and records ownership and
// permission changes, since MemMapFs does not expose them back
// through FileInfo.
type recordingFs struct {
	afero.Fs
	chowns map[string][2]int
	chmods map[string]os.FileMode
}

func newRecordingFs() *recordingFs {
	return &recordingFs{
		Fs:     afero.NewMemMapFs(),
		chowns: map[string][2]int{},
		chmods: map[string]os.FileMode{},
	}
}

func (r *recordingFs) Chown(name string, uid, gid int) error {
	r.chowns[name] = [2]int{uid, gid}
	return r.Fs.Chown(name, uid, gid)
}

func (r *recordingFs) Chmod(name string, mode os.FileMode) error {
	r.chmods[name] = mode
	return r.Fs.Chmod(name, mode)
}

func newTestSystem() (*UnixSystem, *recordingFs) {
	rfs := newRecordingFs()
	return &UnixSystem{
		fs:     rfs,
		passwd: "/etc/passwd",
		group:  "/etc/group",
		shadow: "/etc/shadow",
	}, rfs
}

func TestChownRecursive(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, rfs.MkdirAll("/var/lib/metaserve/db", 0755))
	require.NoError(t, afero.WriteFile(rfs, "/var/lib/metaserve/db/index.dat", []byte("x"), 0600))
	require.NoError(t, afero.WriteFile(rfs, "/var/lib/metaserve/settings.toml", []byte("x"), 0600))

	require.NoError(t, s.ChownRecursive("/var/lib/metaserve", 1000, 1000))

	for _, path := range []string{
		"/var/lib/metaserve",
		"/var/lib/metaserve/db",
		"/var/lib/metaserve/db/index.dat",
		"/var/lib/metaserve/settings.toml",
	} {
		assert.Equal(t, [2]int{1000, 1000}, rfs.chowns[path], "missing chown on %s", path)
	}
}

func TestChmodRecursive(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, rfs.MkdirAll("/etc/metaserve/keys", 0755))
	require.NoError(t, afero.WriteFile(rfs, "/etc/metaserve/config.toml", []byte("x"), 0666))

	mode := os.FileMode(0770) | os.ModeSetgid
	require.NoError(t, s.ChmodRecursive("/etc/metaserve", mode))

	for _, path := range []string{
		"/etc/metaserve",
		"/etc/metaserve/keys",
		"/etc/metaserve/config.toml",
	} {
		assert.Equal(t, mode, rfs.chmods[path], "missing chmod on %s", path)
	}
}

func TestChownRecursiveMissingRoot(t *testing.T) {
	s, _ := newTestSystem()
	assert.Error(t, s.ChownRecursive("/does/not/exist", 1000, 1000))
}

func TestAppendFile(t *testing.T) {
	s, rfs := newTestSystem()

	require.NoError(t, s.AppendFile("/etc/motd", []byte("first line\n"), 0644))
	require.NoError(t, s.AppendFile("/etc/motd", []byte("second line\n"), 0644))

	content, err := afero.ReadFile(rfs, "/etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", string(content))
}

func TestAppendFileNeverTruncates(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, afero.WriteFile(rfs, "/etc/profile", []byte("export PATH\n"), 0644))

	require.NoError(t, s.AppendFile("/etc/profile", []byte("umask 022\n"), 0644))

	content, err := afero.ReadFile(rfs, "/etc/profile")
	require.NoError(t, err)
	assert.Equal(t, "export PATH\numask 022\n", string(content))
}

func TestLookupAccount(t *testing.T) {
	s, rfs := newTestSystem()
	passwd := "root:x:0:0:root:/root:/bin/bash\n" +
		"daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin\n"
	require.NoError(t, afero.WriteFile(rfs, "/etc/passwd", []byte(passwd), 0644))

	acct, found, err := s.LookupAccount("daemon")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, acct.UID)
	assert.Equal(t, 1, acct.GID)
	assert.Equal(t, "/usr/sbin/nologin", acct.Shell)

	_, found, err = s.LookupAccount("metaserve")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupAccountNoPasswdFile(t *testing.T) {
	s, _ := newTestSystem()
	_, found, err := s.LookupAccount("metaserve")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateAccount(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, afero.WriteFile(rfs, "/etc/passwd", []byte("root:x:0:0:root:/root:/bin/bash\n"), 0644))
	require.NoError(t, afero.WriteFile(rfs, "/etc/group", []byte("root:x:0:\n"), 0644))

	acct := Account{
		Name:    "metaserve",
		UID:     1000,
		GID:     1000,
		HomeDir: "/var/lib/metaserve",
		Shell:   "/usr/sbin/nologin",
	}
	require.NoError(t, s.CreateAccount(acct))

	got, found, err := s.LookupAccount("metaserve")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1000, got.UID)
	assert.Equal(t, 1000, got.GID)
	assert.Equal(t, "/var/lib/metaserve", got.HomeDir)
	assert.Equal(t, "/usr/sbin/nologin", got.Shell)

	group, err := afero.ReadFile(rfs, "/etc/group")
	require.NoError(t, err)
	assert.Contains(t, string(group), "metaserve:x:1000:")

	// Existing entries must survive untouched.
	passwd, err := afero.ReadFile(rfs, "/etc/passwd")
	require.NoError(t, err)
	assert.Contains(t, string(passwd), "root:x:0:0:")
}

func TestCreateAccountDuplicate(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, afero.WriteFile(rfs, "/etc/passwd", []byte("metaserve:x:1000:1000::/var/lib/metaserve:/usr/sbin/nologin\n"), 0644))

	err := s.CreateAccount(Account{Name: "metaserve", UID: 1000, GID: 1000})
	assert.Error(t, err)
}

func TestCreateAccountLocksShadowEntry(t *testing.T) {
	s, rfs := newTestSystem()
	require.NoError(t, afero.WriteFile(rfs, "/etc/passwd", []byte(""), 0644))
	require.NoError(t, afero.WriteFile(rfs, "/etc/group", []byte(""), 0644))
	require.NoError(t, afero.WriteFile(rfs, "/etc/shadow", []byte("root:*:19000:0:99999:7:::\n"), 0600))

	require.NoError(t, s.CreateAccount(Account{Name: "metaserve", UID: 1000, GID: 1000, HomeDir: "/var/lib/metaserve", Shell: "/usr/sbin/nologin"}))

	shadow, err := afero.ReadFile(rfs, "/etc/shadow")
	require.NoError(t, err)
	assert.Contains(t, string(shadow), "metaserve:!:")
}
