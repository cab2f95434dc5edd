package printer

import "errors"

var (
	// ErrNoCompatibleDevice indicates discovery finished without finding a
	// device matching the configured filters.
	ErrNoCompatibleDevice = errors.New("no compatible printer found")

	// ErrConnectionRejected indicates the device refused the session.
	ErrConnectionRejected = errors.New("printer rejected the connection")

	// ErrNoWritableCharacteristic indicates the device exposes none of the
	// known services with a writable characteristic.
	ErrNoWritableCharacteristic = errors.New("printer has no writable characteristic")

	// ErrConnectionTimeout indicates discovery or connect exceeded its bound.
	ErrConnectionTimeout = errors.New("timed out connecting to printer")

	// ErrAlreadyConnected indicates a connect attempt while a session is open.
	ErrAlreadyConnected = errors.New("printer connection already open")

	// ErrNotConnected indicates a write attempt with no open session.
	ErrNotConnected = errors.New("no printer connected")

	// ErrPrinterBusy indicates a print attempt while another job is writing.
	ErrPrinterBusy = errors.New("printer is busy with another job")

	// ErrTransportWrite indicates a chunk write failed mid-job.
	ErrTransportWrite = errors.New("transport write failed")

	// ErrWriteTimeout indicates a single chunk write exceeded its bound.
	ErrWriteTimeout = errors.New("timed out writing to printer")
)
