package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/client"
	"github.com/erpl/erpl-adt/pkg/adt/session"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/creds"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// connection is the resolved set of connection parameters, flags first,
// credentials file as fallback.
type connection struct {
	Host     string
	Port     int
	HTTPS    bool
	Insecure bool
	Client   string
	User     string
	Password string
}

func resolveConnection() (*connection, error) {
	conn := &connection{
		Host:     flagHost,
		Port:     flagPort,
		HTTPS:    flagHTTPS,
		Insecure: flagInsecure,
		Client:   flagClient,
		User:     flagUser,
		Password: flagPassword,
	}

	if conn.Password == "" && flagPasswordEnv != "" {
		conn.Password = os.Getenv(flagPasswordEnv)
	}

	if conn.Host == "" && creds.Exists(creds.DefaultPath) {
		stored, err := creds.Load(creds.DefaultPath)
		if err != nil {
			return nil, err
		}
		conn.Host = stored.Host
		conn.HTTPS = stored.UseHTTPS
		if conn.Port == 0 {
			conn.Port = stored.Port
		}
		if conn.Client == "" {
			conn.Client = stored.Client
		}
		if conn.User == "" {
			conn.User = stored.User
		}
		if conn.Password == "" {
			conn.Password = stored.Password
		}
	}

	fail := func(format string, args ...any) error {
		return aerr.New(aerr.KindInternal, "Connect", fmt.Sprintf(format, args...)).
			WithHint("pass --host/--port/--client/--user or run 'erpl-adt login'")
	}
	if conn.Host == "" {
		return nil, fail("no SAP host configured")
	}
	if conn.Port == 0 {
		return nil, fail("no SAP port configured")
	}
	if conn.Client == "" {
		return nil, fail("no SAP client configured")
	}
	if conn.User == "" {
		return nil, fail("no SAP user configured")
	}
	if conn.Password == "" {
		return nil, fail("no SAP password configured (flag, %s, or credentials file)", flagPasswordEnv)
	}
	return conn, nil
}

// newSession builds the HTTP session from the resolved connection. When
// --session-file names an existing file, the saved CSRF token, cookies and
// stateful flag are restored into it.
func newSession() (*session.HTTPSession, error) {
	conn, err := resolveConnection()
	if err != nil {
		return nil, err
	}
	sapClient, err := types.NewSapClient(conn.Client)
	if err != nil {
		return nil, err
	}
	sess := session.New(session.Config{
		Host:     conn.Host,
		Port:     conn.Port,
		UseHTTPS: conn.HTTPS,
		Insecure: conn.Insecure,
		Client:   sapClient,
		User:     conn.User,
		Password: conn.Password,
		Timeout:  time.Duration(flagTimeout) * time.Second,
	})
	if flagSessionFile != "" {
		if _, statErr := os.Stat(flagSessionFile); statErr == nil {
			if err := sess.Load(flagSessionFile); err != nil {
				return nil, err
			}
			logger.Debugf("restored session from %s", flagSessionFile)
		}
	}
	return sess, nil
}

// sessionFromCredentials builds a session directly from a stored profile.
func sessionFromCredentials(c *creds.Credentials) (*session.HTTPSession, error) {
	sapClient, err := types.NewSapClient(c.Client)
	if err != nil {
		return nil, err
	}
	return session.New(session.Config{
		Host:     c.Host,
		Port:     c.Port,
		UseHTTPS: c.UseHTTPS,
		Insecure: flagInsecure,
		Client:   sapClient,
		User:     c.User,
		Password: c.Password,
	}), nil
}

func newClient() (*client.Client, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	opts := []client.Option{}
	if flagTimeout > 0 {
		opts = append(opts, client.WithAsyncTimeout(time.Duration(flagTimeout)*time.Second))
	}
	return client.New(sess, opts...), nil
}

// useColor reports whether human output may be styled.
func useColor() bool {
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func styled(style lipgloss.Style, s string) string {
	if !useColor() {
		return s
	}
	return style.Render(s)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return aerr.Wrap(aerr.KindInternal, "Output", "encoding JSON", err)
	}
	fmt.Println(string(data))
	return nil
}

// renderTable prints a bordered table to stdout.
func renderTable(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Options(tablewriter.WithHeader(headers))
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return aerr.Wrap(aerr.KindInternal, "Output", "appending table row", err)
		}
	}
	if err := table.Render(); err != nil {
		return aerr.Wrap(aerr.KindInternal, "Output", "rendering table", err)
	}
	return nil
}

// renderDetail prints aligned key/value lines to stdout.
func renderDetail(pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		fmt.Printf("%-*s  %s\n", width+1, p[0]+":", p[1])
	}
}

// RenderError writes err to stderr: a JSON error object in --json mode,
// otherwise a colored one-liner with the optional hint.
func RenderError(err error) {
	if err == nil {
		return
	}
	if flagJSON {
		payload := map[string]any{"error": map[string]any{
			"message":   err.Error(),
			"exit_code": aerr.ExitCode(err),
		}}
		if e := aerr.As(err); e != nil && e.Hint != "" {
			payload["error"].(map[string]any)["hint"] = e.Hint
		}
		data, merr := json.Marshal(payload)
		if merr == nil {
			fmt.Fprintln(os.Stderr, string(data))
			return
		}
	}
	fmt.Fprintln(os.Stderr, styled(errorStyle, "Error: "+err.Error()))
	if e := aerr.As(err); e != nil && e.Hint != "" {
		fmt.Fprintln(os.Stderr, "Hint: "+e.Hint)
	}
}

// ExitCode maps err to the stable process exit code.
func ExitCode(err error) int {
	return aerr.ExitCode(err)
}

// splitCSV parses a comma-separated flag value into trimmed parts.
func splitCSV(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
