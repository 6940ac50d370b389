package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/creds"
)

// resetFlags restores the package-level flag state after a test mutated it.
func resetFlags(t *testing.T) {
	t.Helper()
	savedHost, savedPort, savedHTTPS := flagHost, flagPort, flagHTTPS
	savedClient, savedUser, savedPassword := flagClient, flagUser, flagPassword
	savedPasswordEnv, savedJSON := flagPasswordEnv, flagJSON
	t.Cleanup(func() {
		flagHost, flagPort, flagHTTPS = savedHost, savedPort, savedHTTPS
		flagClient, flagUser, flagPassword = savedClient, savedUser, savedPassword
		flagPasswordEnv, flagJSON = savedPasswordEnv, savedJSON
	})
}

func setConnectionFlags(t *testing.T) {
	t.Helper()
	resetFlags(t)
	flagHost = "sap.example.com"
	flagPort = 44300
	flagHTTPS = true
	flagClient = "100"
	flagUser = "DEVELOPER"
	flagPassword = "secret"
	flagPasswordEnv = "SAP_PASSWORD"
}

func TestResolveConnectionFromFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)

	conn, err := resolveConnection()
	require.NoError(t, err)
	assert.Equal(t, "sap.example.com", conn.Host)
	assert.Equal(t, 44300, conn.Port)
	assert.True(t, conn.HTTPS)
	assert.Equal(t, "100", conn.Client)
	assert.Equal(t, "DEVELOPER", conn.User)
	assert.Equal(t, "secret", conn.Password)
}

func TestResolveConnectionPasswordFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)
	flagPassword = ""
	t.Setenv("SAP_PASSWORD", "from-env")

	conn, err := resolveConnection()
	require.NoError(t, err)
	assert.Equal(t, "from-env", conn.Password)
}

func TestResolveConnectionMissingHost(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)
	flagHost = ""

	_, err := resolveConnection()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SAP host configured")
	e := aerr.As(err)
	require.NotNil(t, e)
	assert.Contains(t, e.Hint, "erpl-adt login")
}

func TestResolveConnectionMissingPassword(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)
	flagPassword = ""
	t.Setenv("SAP_PASSWORD", "")

	_, err := resolveConnection()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SAP password configured")
}

func TestResolveConnectionCredentialsFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)
	flagHost = ""
	flagPort = 0
	flagClient = ""
	flagUser = ""
	flagPassword = ""
	t.Setenv("SAP_PASSWORD", "")

	require.NoError(t, creds.Save(creds.DefaultPath, &creds.Credentials{
		Host:     "stored.example.com",
		Port:     8000,
		User:     "STOREDUSER",
		Password: "stored-pass",
		Client:   "200",
		UseHTTPS: false,
	}))

	conn, err := resolveConnection()
	require.NoError(t, err)
	assert.Equal(t, "stored.example.com", conn.Host)
	assert.Equal(t, 8000, conn.Port)
	assert.False(t, conn.HTTPS)
	assert.Equal(t, "200", conn.Client)
	assert.Equal(t, "STOREDUSER", conn.User)
	assert.Equal(t, "stored-pass", conn.Password)
}

func TestResolveConnectionFlagsBeatCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	setConnectionFlags(t)

	require.NoError(t, creds.Save(creds.DefaultPath, &creds.Credentials{
		Host:     "stored.example.com",
		Port:     8000,
		User:     "STOREDUSER",
		Password: "stored-pass",
		Client:   "200",
	}))

	// --host is set, so the credentials file is never consulted.
	conn, err := resolveConnection()
	require.NoError(t, err)
	assert.Equal(t, "sap.example.com", conn.Host)
	assert.Equal(t, "DEVELOPER", conn.User)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"ADSO", "RSDS"}, splitCSV("ADSO, RSDS"))
	assert.Equal(t, []string{"ONE"}, splitCSV(",ONE,,"))
	assert.Nil(t, splitCSV(""))
	assert.Nil(t, splitCSV(" , "))
}

func TestExitCodePassthrough(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(aerr.New(aerr.KindNotFound, "Op", "gone")))
	assert.Equal(t, 7, ExitCode(aerr.New(aerr.KindTestFailure, "Op", "red")))
}

func TestNewRootCmdRegistersGroups(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{
		"login", "logout", "mcp", "search", "object", "source", "test",
		"check", "transport", "ddic", "package", "discover", "bw",
		"deploy", "status", "pull", "activate",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotEmpty(t, root.Version)
}
