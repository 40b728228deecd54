package artnet

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// targetList is a file of Art-Net targets, one per line. Blank lines and
// lines starting with '#' are ignored. The file is checked at most once per
// interval and re-read when its modification time changes.
type targetList struct {
	path     string
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	checked time.Time
	modTime time.Time
	addrs   []net.Addr
}

func newTargetList(path string, interval time.Duration, log zerolog.Logger) *targetList {
	return &targetList{path: path, interval: interval, log: log, now: time.Now}
}

// targets returns the current list, reloading it first when it is due.
// A reload failure keeps the previous list.
func (l *targetList) targets() []net.Addr {
	now := l.now()
	if now.Sub(l.checked) < l.interval {
		return l.addrs
	}
	l.checked = now

	st, err := os.Stat(l.path)
	if err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("target list unavailable, keeping previous targets")
		return l.addrs
	}
	if st.ModTime().Equal(l.modTime) {
		return l.addrs
	}
	if err := l.load(); err != nil {
		l.log.Warn().Err(err).Str("path", l.path).Msg("target list reload failed, keeping previous targets")
	}
	return l.addrs
}

func (l *targetList) load() error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat target list: %w", err)
	}

	var addrs []net.Addr
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		addr, err := ResolveTarget(s)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", l.path, line, err)
		}
		addrs = append(addrs, addr)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read target list: %w", err)
	}

	l.addrs = addrs
	l.modTime = st.ModTime()
	l.checked = l.now()
	l.log.Debug().Str("path", l.path).Int("targets", len(addrs)).Msg("target list loaded")
	return nil
}
