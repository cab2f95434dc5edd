package printer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RfcommScanner discovers printers bound to rfcomm device files. Pairing is
// done out of band (bluetoothctl plus rfcomm bind); each bound printer shows
// up as a /dev/rfcomm* node, which is what this scanner probes.
type RfcommScanner struct {
	// Glob matches candidate device files, e.g. "/dev/rfcomm*".
	Glob string
}

// Scan lists the bound device files. Name filters match against the base
// file name, so a prefix like "rfcomm" matches everything the glob found.
func (s *RfcommScanner) Scan(ctx context.Context, filters Filters) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(s.Glob)
	if err != nil {
		return nil, fmt.Errorf("rfcomm scan: %w", err)
	}

	var devices []Device
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if !matchesName(filepath.Base(p), filters.NamePrefixes) {
			continue
		}
		devices = append(devices, &rfcommDevice{path: p})
	}
	return devices, nil
}

func matchesName(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

type rfcommDevice struct {
	path string
}

func (d *rfcommDevice) Name() string    { return filepath.Base(d.path) }
func (d *rfcommDevice) Address() string { return d.path }

func (d *rfcommDevice) Connect(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(d.path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.path, err)
	}
	return &rfcommSession{file: f}, nil
}

// rfcommSession exposes the serial link as a single SPP service with one
// writable characteristic.
type rfcommSession struct {
	file *os.File

	closeOnce sync.Once
	closeErr  error
}

func (s *rfcommSession) Services(ctx context.Context) ([]Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Service{&rfcommService{file: s.file}}, nil
}

func (s *rfcommSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.file.Close()
	})
	return s.closeErr
}

type rfcommService struct {
	file *os.File
}

func (s *rfcommService) UUID() string { return KnownServiceUUIDs[0] }

func (s *rfcommService) Characteristics(ctx context.Context) ([]Characteristic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Characteristic{&rfcommCharacteristic{file: s.file}}, nil
}

type rfcommCharacteristic struct {
	file *os.File
}

func (c *rfcommCharacteristic) UUID() string   { return KnownServiceUUIDs[0] }
func (c *rfcommCharacteristic) Writable() bool { return true }

func (c *rfcommCharacteristic) Write(ctx context.Context, chunk []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.file.SetWriteDeadline(deadline); err == nil {
			defer c.file.SetWriteDeadline(time.Time{})
		}
	}
	_, err := c.file.Write(chunk)
	if err != nil && ctx.Err() != nil {
		return context.DeadlineExceeded
	}
	return err
}
