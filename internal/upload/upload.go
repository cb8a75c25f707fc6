// Package upload publishes the rendered page over FTP.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
)

// Config holds the FTP target.
type Config struct {
	Addr       string // host or host:port, port 21 by default
	Username   string
	Password   string
	Dir        string // remote directory, unchanged when empty
	RemoteName string // "index.html" when empty
	Timeout    time.Duration
}

// conn is the part of *ftp.ServerConn used by Upload.
type conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	Stor(path string, r io.Reader) error
	Quit() error
}

var dial = func(ctx context.Context, addr string, timeout time.Duration) (conn, error) {
	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(timeout))
	}
	return ftp.Dial(addr, opts...)
}

// Upload sends the file at localPath to the FTP server.
func Upload(ctx context.Context, cfg Config, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	addr := cfg.Addr
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "21")
	}
	remote := cfg.RemoteName
	if remote == "" {
		remote = "index.html"
	}

	slog.Info("connecting to ftp", "addr", addr, "user", cfg.Username)
	c, err := dial(ctx, addr, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("dial ftp: %w", err)
	}

	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		c.Quit()
		return fmt.Errorf("ftp login: %w", err)
	}

	if cfg.Dir != "" {
		slog.Debug("changing ftp directory", "dir", cfg.Dir)
		if err := c.ChangeDir(cfg.Dir); err != nil {
			c.Quit()
			return fmt.Errorf("ftp change dir %s: %w", cfg.Dir, err)
		}
	}

	slog.Info("uploading page", "file", localPath, "remote", remote)
	if err := c.Stor(remote, f); err != nil {
		c.Quit()
		return fmt.Errorf("ftp store %s: %w", remote, err)
	}

	if err := c.Quit(); err != nil {
		slog.Debug("ftp quit", "error", err)
	}
	return nil
}
