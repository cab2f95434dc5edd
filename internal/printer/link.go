package printer

import "context"

// Known printer service UUIDs, tried in priority order during resolution.
// The serial port profile comes first; the vendor UUIDs cover common
// ESC/POS printer chipsets.
var KnownServiceUUIDs = []string{
	"00001101-0000-1000-8000-00805f9b34fb",
	"000018f0-0000-1000-8000-00805f9b34fb",
	"49535343-fe7d-4ae5-8fa9-9fafd205e455",
}

// DefaultNamePrefixes match the advertised names of supported printers.
var DefaultNamePrefixes = []string{"RPP", "MTP", "PT-", "Printer"}

// Filters narrow discovery to compatible devices. A device matches when its
// name carries one of the prefixes or it advertises one of the service UUIDs.
type Filters struct {
	NamePrefixes []string
	ServiceUUIDs []string
}

// DefaultFilters returns the fixed discovery filters for supported printers.
func DefaultFilters() Filters {
	return Filters{
		NamePrefixes: DefaultNamePrefixes,
		ServiceUUIDs: KnownServiceUUIDs,
	}
}

// Scanner discovers nearby candidate devices.
type Scanner interface {
	Scan(ctx context.Context, filters Filters) ([]Device, error)
}

// Device is a discovered printer that can open a session.
type Device interface {
	Name() string
	Address() string
	Connect(ctx context.Context) (Session, error)
}

// Session is an open link to a device. Closing it releases the underlying
// handle; Close must be safe to call more than once.
type Session interface {
	Services(ctx context.Context) ([]Service, error)
	Close() error
}

// Service is one service exposed by a connected device.
type Service interface {
	UUID() string
	Characteristics(ctx context.Context) ([]Characteristic, error)
}

// Characteristic is a single endpoint within a service. Writes must respect
// the context deadline.
type Characteristic interface {
	UUID() string
	Writable() bool
	Write(ctx context.Context, chunk []byte) error
}

// Connection is the resolved, writable path to a printer. It is owned by the
// transport that created it and torn down on disconnect or fatal error.
type Connection struct {
	device         Device
	session        Session
	characteristic Characteristic
	maxChunkBytes  int
}
