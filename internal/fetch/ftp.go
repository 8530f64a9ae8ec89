package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
)

const defaultFTPTimeout = 30 * time.Second

// FTPSource downloads from ftp:// locators. Credentials come from the URL
// user info; anonymous login is used otherwise.
type FTPSource struct {
	Timeout time.Duration
}

func (s *FTPSource) Fetch(ctx context.Context, u *url.URL, dir string) (string, error) {
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "21")
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultFTPTimeout
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", host, err)
	}
	defer func() { _ = conn.Quit() }()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return "", fmt.Errorf("login %s: %w", host, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return "", fmt.Errorf("retrieve %s: %w", u.Path, err)
	}
	defer func() { _ = resp.Close() }()

	dest := destination(u, dir)
	if err := writeAtomic(dest, resp); err != nil {
		return "", err
	}
	return dest, nil
}
